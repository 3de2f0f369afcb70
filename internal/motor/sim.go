package motor

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/actuate/internal/integrators"
	"github.com/san-kum/actuate/internal/sim"
)

var (
	// ErrInvalidID is returned by Initialize for ids outside the bus range.
	ErrInvalidID = errors.New("motor: id must be between 1 and 8")
	// ErrUnstable is returned by Advance when the plant state diverges.
	ErrUnstable = errors.New("motor: plant state diverged")
)

// Binding identifies a motor on a bus and how it is mounted.
type Binding struct {
	Name     string `yaml:"name"`
	ID       int    `yaml:"id"`
	Bus      string `yaml:"bus"`
	Inverted bool   `yaml:"inverted"`
}

// Plant describes the simulated drive train behind one motor.
type Plant struct {
	// TimeConstant of the speed response to a step in command, seconds.
	TimeConstant float64 `yaml:"time_constant"`
	// RPMPerUnit is the steady-state shaft speed per unit of command.
	RPMPerUnit float64 `yaml:"rpm_per_unit"`
	// Integrator is one of integrators.Names().
	Integrator string `yaml:"integrator"`
}

func DefaultPlant() Plant {
	return Plant{
		TimeConstant: 0.05,
		RPMPerUnit:   9000.0 / 16384.0,
		Integrator:   "rk4",
	}
}

// wheel dynamics with state [angle rad, speed rad/s] and a first-order lag
type wheelDynamics struct {
	tau  float64
	gain float64 // rad/s per unit command
}

func (w *wheelDynamics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], (w.gain*u[0] - x[1]) / w.tau}
}

func (w *wheelDynamics) StateDim() int   { return 2 }
func (w *wheelDynamics) ControlDim() int { return 1 }

// Sim is a simulated motor that satisfies the actuator contract used by the
// chassis and agitator subsystems.
type Sim struct {
	binding Binding
	dyn     *wheelDynamics
	integ   sim.Integrator

	state     sim.State
	t         float64
	command   float64
	unwrapper *Unwrapper

	initialized bool
	connected   bool
}

func NewSim(binding Binding, plant Plant) (*Sim, error) {
	if plant.TimeConstant <= 0 {
		return nil, errors.Errorf("motor %s: time constant must be positive, got %f", binding.Name, plant.TimeConstant)
	}
	name := plant.Integrator
	if name == "" {
		name = "rk4"
	}
	integ, err := integrators.ByName(name)
	if err != nil {
		return nil, errors.Wrapf(err, "motor %s", binding.Name)
	}
	return &Sim{
		binding: binding,
		dyn: &wheelDynamics{
			tau:  plant.TimeConstant,
			gain: plant.RPMPerUnit * 2 * math.Pi / 60,
		},
		integ:     integ,
		state:     sim.State{0, 0},
		unwrapper: NewUnwrapper(EncoderResolution),
		connected: true,
	}, nil
}

func (m *Sim) Binding() Binding { return m.binding }

func (m *Sim) Initialize() error {
	if m.binding.ID < 1 || m.binding.ID > 8 {
		return errors.Wrapf(ErrInvalidID, "motor %s has id %d", m.binding.Name, m.binding.ID)
	}
	if m.initialized {
		return nil
	}
	m.initialized = true
	m.unwrapper.Update(m.rawEncoder())
	return nil
}

func (m *Sim) IsOnline() bool { return m.initialized && m.connected }

// SetConnected simulates the bus link coming and going. Dropping the link
// times out the last command.
func (m *Sim) SetConnected(connected bool) {
	m.connected = connected
	if !connected {
		m.command = 0
	}
}

// MeasuredSpeed returns shaft speed in RPM in the mounting frame.
func (m *Sim) MeasuredSpeed() float64 {
	rpm := m.state[1] * 60 / (2 * math.Pi)
	if m.binding.Inverted {
		return -rpm
	}
	return rpm
}

func (m *Sim) UnwrappedPositionTicks() int64 {
	return m.unwrapper.Value()
}

// SetCommandedOutput latches the command for the next Advance. Commands sent
// while offline never reach the motor.
func (m *Sim) SetCommandedOutput(out float64) {
	if !m.IsOnline() {
		return
	}
	if m.binding.Inverted {
		out = -out
	}
	m.command = out
}

// Command returns the last command accepted by the motor, in the mounting
// frame.
func (m *Sim) Command() float64 {
	if m.binding.Inverted {
		return -m.command
	}
	return m.command
}

// Advance integrates the plant by dt. A disconnected motor coasts and its
// encoder feedback freezes.
func (m *Sim) Advance(dt time.Duration) error {
	u := m.command
	if !m.IsOnline() {
		u = 0
	}
	h := dt.Seconds()
	next := m.integ.Step(m.dyn, m.state, sim.Control{u}, m.t, h)
	if !next.IsValid() {
		return errors.Wrapf(ErrUnstable, "motor %s at t=%.4f", m.binding.Name, m.t)
	}
	m.state = next
	m.t += h
	if m.IsOnline() {
		m.unwrapper.Update(m.rawEncoder())
	}
	return nil
}

func (m *Sim) rawEncoder() int64 {
	ticks := int64(math.Floor(m.state[0] / (2 * math.Pi) * EncoderResolution))
	raw := ticks % EncoderResolution
	if raw < 0 {
		raw += EncoderResolution
	}
	if m.binding.Inverted {
		raw = EncoderResolution - 1 - raw
	}
	return raw
}
