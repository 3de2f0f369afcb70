package control

// Params are the gains and limits of a PID loop. A zero MaxIntegral disables
// the integral term and a zero MaxOutput disables the output entirely.
type Params struct {
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	Kd          float64 `yaml:"kd"`
	MaxIntegral float64 `yaml:"max_integral"`
	MaxOutput   float64 `yaml:"max_output"`
}

type PID struct {
	params Params

	// kept on the struct so telemetry can read the individual terms
	p        float64
	integral float64
	d        float64
	output   float64
	prevErr  float64
}

func NewPID(params Params) *PID {
	return &PID{params: params}
}

// Step advances the loop by dt and returns the clamped control output.
// A zero dt returns 0 and leaves the controller untouched.
func (c *PID) Step(err, dt float64) float64 {
	if dt == 0 {
		return 0
	}

	c.p = c.params.Kp * err
	c.integral += c.params.Ki * err * dt
	c.d = c.params.Kd * (err - c.prevErr) / dt
	c.prevErr = err

	if c.params.MaxIntegral == 0 {
		c.integral = 0
	} else {
		c.integral = Clamp(c.integral, -c.params.MaxIntegral, c.params.MaxIntegral)
	}

	out := c.p + c.integral + c.d
	if c.params.MaxOutput == 0 {
		out = 0
	} else {
		out = Clamp(out, -c.params.MaxOutput, c.params.MaxOutput)
	}
	c.output = out
	return out
}

// Reset clears all terms, the last output and the stored error.
func (c *PID) Reset() {
	c.p = 0
	c.integral = 0
	c.d = 0
	c.output = 0
	c.prevErr = 0
}

// Output returns the value produced by the most recent Step.
func (c *PID) Output() float64 { return c.output }

func (c *PID) Params() Params { return c.params }

// GetParams returns gains and live terms for display.
func (c *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":          c.params.Kp,
		"Ki":          c.params.Ki,
		"Kd":          c.params.Kd,
		"MaxIntegral": c.params.MaxIntegral,
		"MaxOutput":   c.params.MaxOutput,
		"P":           c.p,
		"I":           c.integral,
		"D":           c.d,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
