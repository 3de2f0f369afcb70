package metrics

import (
	"github.com/pkg/errors"

	"github.com/san-kum/actuate/internal/chassis"
)

type WheelSample struct {
	Setpoint float64 `json:"setpoint"`
	Measured float64 `json:"measured"`
	Output   float64 `json:"output"`
	Online   bool    `json:"online"`
}

type AgitatorSample struct {
	Setpoint   float64 `json:"setpoint"`
	Velocity   float64 `json:"velocity"`
	Integral   float64 `json:"integral"`
	Output     float64 `json:"output"`
	Calibrated bool    `json:"calibrated"`
	Online     bool    `json:"online"`
}

// Sample is the telemetry recorded after one tick. Wheel speeds are RPM,
// agitator values are rad/s and rad.
type Sample struct {
	Time     float64                         `json:"t"`
	Wheels   [chassis.NumCorners]WheelSample `json:"wheels"`
	Agitator AgitatorSample                  `json:"agitator"`
}

var wheelFields = []string{"setpoint", "measured", "output", "online"}
var agitatorFields = []string{"setpoint", "velocity", "integral", "output", "calibrated", "online"}

// Columns names the flattened sample layout used by Values and the CSV
// files.
func Columns() []string {
	cols := []string{"time"}
	for _, c := range chassis.Corners() {
		for _, f := range wheelFields {
			cols = append(cols, c.String()+"_"+f)
		}
	}
	for _, f := range agitatorFields {
		cols = append(cols, "agitator_"+f)
	}
	return cols
}

func (s Sample) Values() []float64 {
	vals := []float64{s.Time}
	for _, w := range s.Wheels {
		vals = append(vals, w.Setpoint, w.Measured, w.Output, b2f(w.Online))
	}
	a := s.Agitator
	return append(vals, a.Setpoint, a.Velocity, a.Integral, a.Output, b2f(a.Calibrated), b2f(a.Online))
}

// FromValues is the inverse of Values.
func FromValues(vals []float64) (Sample, error) {
	if len(vals) != len(Columns()) {
		return Sample{}, errors.Errorf("metrics: sample has %d values, want %d", len(vals), len(Columns()))
	}
	var s Sample
	s.Time = vals[0]
	i := 1
	for c := range s.Wheels {
		s.Wheels[c] = WheelSample{
			Setpoint: vals[i],
			Measured: vals[i+1],
			Output:   vals[i+2],
			Online:   vals[i+3] != 0,
		}
		i += len(wheelFields)
	}
	s.Agitator = AgitatorSample{
		Setpoint:   vals[i],
		Velocity:   vals[i+1],
		Integral:   vals[i+2],
		Output:     vals[i+3],
		Calibrated: vals[i+4] != 0,
		Online:     vals[i+5] != 0,
	}
	return s, nil
}

// Series extracts one named column from samples.
func Series(samples []Sample, column string) ([]float64, error) {
	idx := -1
	for i, c := range Columns() {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("metrics: unknown column %q", column)
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Values()[idx]
	}
	return out, nil
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
