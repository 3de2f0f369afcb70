package metrics

// Metric folds a stream of samples into one number.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Standard returns the metrics recorded for every run.
func Standard(maxWheelOutput float64) []Metric {
	return []Metric{
		NewTrackingError(),
		NewAgitatorError(),
		NewControlEffort(),
		NewSaturation(maxWheelOutput),
		NewRecalibrations(),
	}
}

// Collect returns the current value of every metric by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
