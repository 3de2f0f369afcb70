package command

import (
	"github.com/san-kum/actuate/internal/control"
	"github.com/san-kum/actuate/internal/operator"
)

// DefaultMaxChassisSpeedMPS is the rim speed a full-scale stick maps to.
const DefaultMaxChassisSpeedMPS = 3.0

type TankChassis interface {
	Subsystem
	SetVelocityTank(left, right float64)
}

type OmniChassis interface {
	Subsystem
	SetVelocityOmni(forward, strafe, rotate float64)
}

func scaler(maxMPS float64) func(float64) float64 {
	return func(raw float64) float64 {
		return control.Clamp(raw, -1, 1) * maxMPS
	}
}

// TankDrive feeds the two tank sticks straight to the chassis.
type TankDrive struct {
	chassis TankChassis
	input   operator.Input
	scale   func(float64) float64
}

func NewTankDrive(chassis TankChassis, input operator.Input, maxMPS float64) *TankDrive {
	return &TankDrive{chassis: chassis, input: input, scale: scaler(maxMPS)}
}

func (c *TankDrive) Name() string              { return "tank drive" }
func (c *TankDrive) Requirements() []Subsystem { return []Subsystem{c.chassis} }
func (c *TankDrive) Initialize()               {}
func (c *TankDrive) IsFinished() bool          { return false }

func (c *TankDrive) Execute() {
	c.chassis.SetVelocityTank(c.scale(c.input.TankLeft()), c.scale(c.input.TankRight()))
}

func (c *TankDrive) End(bool) { c.chassis.SetVelocityTank(0, 0) }

// OmniDrive maps forward, strafe and rotate onto a mecanum chassis.
type OmniDrive struct {
	chassis OmniChassis
	input   operator.Input
	scale   func(float64) float64
}

func NewOmniDrive(chassis OmniChassis, input operator.Input, maxMPS float64) *OmniDrive {
	return &OmniDrive{chassis: chassis, input: input, scale: scaler(maxMPS)}
}

func (c *OmniDrive) Name() string              { return "omni drive" }
func (c *OmniDrive) Requirements() []Subsystem { return []Subsystem{c.chassis} }
func (c *OmniDrive) Initialize()               {}
func (c *OmniDrive) IsFinished() bool          { return false }

func (c *OmniDrive) Execute() {
	c.chassis.SetVelocityOmni(
		c.scale(c.input.Forward()),
		c.scale(c.input.Strafe()),
		c.scale(c.input.Rotate()),
	)
}

func (c *OmniDrive) End(bool) { c.chassis.SetVelocityOmni(0, 0, 0) }
