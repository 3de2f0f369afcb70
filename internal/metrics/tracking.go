package metrics

import "math"

// TrackingError is the RMS wheel speed error in RPM over online wheels.
type TrackingError struct {
	name    string
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_error_rpm"}
}

func (m *TrackingError) Name() string { return m.name }

func (m *TrackingError) Observe(s Sample) {
	for _, w := range s.Wheels {
		if !w.Online {
			continue
		}
		e := w.Setpoint - w.Measured
		m.sumSq += e * e
		m.samples++
	}
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.samples = 0
}

// AgitatorError is the RMS agitator velocity error in rad/s while
// calibrated.
type AgitatorError struct {
	name    string
	sumSq   float64
	samples int
}

func NewAgitatorError() *AgitatorError {
	return &AgitatorError{name: "agitator_error_rad_s"}
}

func (m *AgitatorError) Name() string { return m.name }

func (m *AgitatorError) Observe(s Sample) {
	if !s.Agitator.Calibrated {
		return
	}
	e := s.Agitator.Setpoint - s.Agitator.Velocity
	m.sumSq += e * e
	m.samples++
}

func (m *AgitatorError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *AgitatorError) Reset() {
	m.sumSq = 0
	m.samples = 0
}
