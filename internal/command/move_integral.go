package command

import "math"

// Defaults for one agitator index step: a tenth of a turn at one turn per
// second.
const (
	DefaultIntegralChange   = 2 * math.Pi / 10
	DefaultIntegralSetpoint = 2 * math.Pi
)

// IntegralSubsystem is a velocity loop whose integral can be read back.
type IntegralSubsystem interface {
	Subsystem
	SetSetpoint(v float64)
	CurrentValueIntegral() float64
	IsCalibrated() bool
}

type MoveIntegralConfig struct {
	// TargetIntegralChange is the signed distance to travel.
	TargetIntegralChange float64 `yaml:"target_integral_change"`
	// DesiredSetpoint is the speed magnitude used to get there.
	DesiredSetpoint float64 `yaml:"desired_setpoint"`
	// Tolerance is how close to the target counts as arrived.
	Tolerance float64 `yaml:"tolerance"`
}

func DefaultMoveIntegralConfig() MoveIntegralConfig {
	return MoveIntegralConfig{
		TargetIntegralChange: DefaultIntegralChange,
		DesiredSetpoint:      DefaultIntegralSetpoint,
	}
}

// MoveIntegral spins a subsystem by a fixed integral, then stops it.
type MoveIntegral struct {
	sub    IntegralSubsystem
	cfg    MoveIntegralConfig
	target float64
}

func NewMoveIntegral(sub IntegralSubsystem, cfg MoveIntegralConfig) *MoveIntegral {
	return &MoveIntegral{sub: sub, cfg: cfg}
}

func (c *MoveIntegral) Name() string              { return "move integral" }
func (c *MoveIntegral) Requirements() []Subsystem { return []Subsystem{c.sub} }

// Ready refuses to start until a zero reference exists.
func (c *MoveIntegral) Ready() bool { return c.sub.IsCalibrated() }

func (c *MoveIntegral) Initialize() {
	c.target = c.sub.CurrentValueIntegral() + c.cfg.TargetIntegralChange
	c.sub.SetSetpoint(math.Copysign(math.Abs(c.cfg.DesiredSetpoint), c.cfg.TargetIntegralChange))
}

func (c *MoveIntegral) Execute() {}

func (c *MoveIntegral) End(bool) { c.sub.SetSetpoint(0) }

// IsFinished reports arrival within tolerance, overshoot, or a lost zero
// reference.
func (c *MoveIntegral) IsFinished() bool {
	if !c.sub.IsCalibrated() {
		return true
	}
	cur := c.sub.CurrentValueIntegral()
	if math.Abs(c.target-cur) <= c.cfg.Tolerance {
		return true
	}
	if c.cfg.TargetIntegralChange >= 0 {
		return cur >= c.target
	}
	return cur <= c.target
}

// Target is the absolute integral the current run is heading for.
func (c *MoveIntegral) Target() float64 { return c.target }
