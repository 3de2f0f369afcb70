package metrics

import "math"

// Saturation is the fraction of wheel commands pinned at the output limit.
type Saturation struct {
	name      string
	limit     float64
	saturated int
	samples   int
}

func NewSaturation(limit float64) *Saturation {
	return &Saturation{
		name:  "saturation",
		limit: limit,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(sample Sample) {
	if s.limit <= 0 {
		return
	}
	for _, w := range sample.Wheels {
		s.samples++
		if math.Abs(w.Output) >= s.limit {
			s.saturated++
		}
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}

// Recalibrations counts how often the agitator regained its zero reference.
type Recalibrations struct {
	name  string
	prev  bool
	count int
}

func NewRecalibrations() *Recalibrations {
	return &Recalibrations{name: "recalibrations"}
}

func (r *Recalibrations) Name() string { return r.name }

func (r *Recalibrations) Observe(s Sample) {
	if s.Agitator.Calibrated && !r.prev {
		r.count++
	}
	r.prev = s.Agitator.Calibrated
}

func (r *Recalibrations) Value() float64 { return float64(r.count) }

func (r *Recalibrations) Reset() {
	r.prev = false
	r.count = 0
}
