package chassis

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/control"
)

// Actuator is the motor contract the drivetrain drives. Speeds are shaft RPM
// in the mounting frame of the wheel.
type Actuator interface {
	Initialize() error
	IsOnline() bool
	MeasuredSpeed() float64
	UnwrappedPositionTicks() int64
	SetCommandedOutput(out float64)
}

const (
	DefaultWheelDiameterM     = 0.076
	DefaultGearRatio          = 19.0
	DefaultMaxWheelSpeedRPM   = 7000.0
	DefaultMaxChassisSpeedMPS = 3.0
	DefaultTickPeriod         = 2 * time.Millisecond
)

type Config struct {
	WheelDiameterM     float64        `yaml:"wheel_diameter_m"`
	GearRatio          float64        `yaml:"gear_ratio"`
	MaxWheelSpeedRPM   float64        `yaml:"max_wheel_speed_rpm"`
	MaxChassisSpeedMPS float64        `yaml:"max_chassis_speed_mps"`
	WheelPID           control.Params `yaml:"wheel_pid"`
	Mixing             MixingTable    `yaml:"mixing"`
	// Desaturate scales every wheel of an omni command by the same factor
	// when one of them exceeds MaxWheelSpeedRPM, keeping the direction of
	// travel. Without it each wheel is clamped on its own.
	Desaturate bool          `yaml:"desaturate"`
	TickPeriod time.Duration `yaml:"tick_period"`
}

func DefaultConfig() Config {
	return Config{
		WheelDiameterM:     DefaultWheelDiameterM,
		GearRatio:          DefaultGearRatio,
		MaxWheelSpeedRPM:   DefaultMaxWheelSpeedRPM,
		MaxChassisSpeedMPS: DefaultMaxChassisSpeedMPS,
		WheelPID:           control.Params{Kp: 10, MaxOutput: 16000},
		Mixing:             DefaultMecanumTable,
		TickPeriod:         DefaultTickPeriod,
	}
}

func (c Config) Validate() error {
	if c.WheelDiameterM <= 0 {
		return errors.Errorf("chassis: wheel diameter must be positive, got %f", c.WheelDiameterM)
	}
	if c.GearRatio <= 0 {
		return errors.Errorf("chassis: gear ratio must be positive, got %f", c.GearRatio)
	}
	if c.MaxWheelSpeedRPM <= 0 {
		return errors.Errorf("chassis: max wheel speed must be positive, got %f", c.MaxWheelSpeedRPM)
	}
	if c.TickPeriod <= 0 {
		return errors.Errorf("chassis: tick period must be positive, got %s", c.TickPeriod)
	}
	return c.Mixing.Validate()
}

// MPSToRPM converts a wheel rim speed in m/s to motor shaft RPM ahead of the
// gearbox.
func (c Config) MPSToRPM(mps float64) float64 {
	return mps / (math.Pi * c.WheelDiameterM) * 60 * c.GearRatio
}

type wheelSlot struct {
	act      Actuator
	pid      *control.PID
	setpoint float64
}

// Drivetrain runs one speed loop per wheel. Setters only latch targets; the
// next Refresh applies them.
type Drivetrain struct {
	cfg    Config
	tickMs float64
	wheels [NumCorners]wheelSlot
	logger *zap.SugaredLogger
}

func New(cfg Config, wheels [NumCorners]Actuator, logger *zap.SugaredLogger) (*Drivetrain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	d := &Drivetrain{
		cfg:    cfg,
		tickMs: float64(cfg.TickPeriod) / float64(time.Millisecond),
		logger: logger,
	}
	for _, c := range Corners() {
		if wheels[c] == nil {
			return nil, errors.Errorf("chassis: no actuator for %s", c)
		}
		d.wheels[c] = wheelSlot{act: wheels[c], pid: control.NewPID(cfg.WheelPID)}
	}
	return d, nil
}

func (d *Drivetrain) Name() string { return "chassis" }

// Initialize brings up every wheel. A failing wheel does not stop the
// others from initializing.
func (d *Drivetrain) Initialize() error {
	var err error
	for _, c := range Corners() {
		if e := d.wheels[c].act.Initialize(); e != nil {
			err = multierr.Combine(err, errors.Wrapf(e, "wheel %s", c))
		}
	}
	if err != nil {
		d.logger.Warnw("drivetrain initialized with errors", "error", err)
		return err
	}
	d.logger.Debugw("drivetrain initialized", "tick_ms", d.tickMs, "desaturate", d.cfg.Desaturate)
	return nil
}

// SetVelocityTank drives each side at its own rim speed in m/s.
func (d *Drivetrain) SetVelocityTank(left, right float64) {
	l := d.limit(d.cfg.MPSToRPM(left))
	r := d.limit(d.cfg.MPSToRPM(right))
	for _, c := range Corners() {
		if c.IsLeft() {
			d.wheels[c].setpoint = l
		} else {
			d.wheels[c].setpoint = r
		}
	}
}

// SetVelocityOmni mixes body velocities in m/s through the mixing table.
// Positive strafe is to the right and positive rotate is clockwise.
func (d *Drivetrain) SetVelocityOmni(forward, strafe, rotate float64) {
	mixed := d.cfg.Mixing.mix(forward, strafe, rotate)
	var rpm [NumCorners]float64
	peak := 0.0
	for _, c := range Corners() {
		rpm[c] = d.cfg.MPSToRPM(mixed[c])
		peak = math.Max(peak, math.Abs(rpm[c]))
	}
	if d.cfg.Desaturate && peak > d.cfg.MaxWheelSpeedRPM {
		scale := d.cfg.MaxWheelSpeedRPM / peak
		for _, c := range Corners() {
			rpm[c] *= scale
		}
	}
	for _, c := range Corners() {
		d.wheels[c].setpoint = d.limit(rpm[c])
	}
}

// SetWheelSpeeds sets each wheel's rim speed in m/s directly.
func (d *Drivetrain) SetWheelSpeeds(mps [NumCorners]float64) {
	for _, c := range Corners() {
		d.wheels[c].setpoint = d.limit(d.cfg.MPSToRPM(mps[c]))
	}
}

// SetVelocity takes body velocities in the right-handed robot frame: Y is
// forward, X is right and Z points up, so a positive angular Z turns
// counterclockwise. All components are rim speeds in m/s.
func (d *Drivetrain) SetVelocity(linear, angular r3.Vector) {
	d.SetVelocityOmni(linear.Y, linear.X, -angular.Z)
}

// Stop zeroes every wheel target.
func (d *Drivetrain) Stop() {
	d.SetWheelSpeeds([NumCorners]float64{})
}

// Refresh steps every wheel loop once, independently.
func (d *Drivetrain) Refresh() {
	for _, c := range Corners() {
		w := &d.wheels[c]
		out := w.pid.Step(w.setpoint-w.act.MeasuredSpeed(), d.tickMs)
		w.act.SetCommandedOutput(out)
	}
}

func (d *Drivetrain) limit(rpm float64) float64 {
	return control.Clamp(rpm, -d.cfg.MaxWheelSpeedRPM, d.cfg.MaxWheelSpeedRPM)
}

func (d *Drivetrain) Config() Config { return d.cfg }

// Setpoint returns the latched target of a wheel in RPM.
func (d *Drivetrain) Setpoint(c Corner) float64 { return d.wheels[c].setpoint }

// Output returns the command produced for a wheel by the last Refresh.
func (d *Drivetrain) Output(c Corner) float64 { return d.wheels[c].pid.Output() }

func (d *Drivetrain) Measured(c Corner) float64 { return d.wheels[c].act.MeasuredSpeed() }

// PID exposes a wheel's controller for tuning views.
func (d *Drivetrain) PID(c Corner) *control.PID { return d.wheels[c].pid }

type WheelTelemetry struct {
	Setpoint float64
	Measured float64
	Output   float64
	Online   bool
}

type Telemetry struct {
	Wheels [NumCorners]WheelTelemetry
}

func (d *Drivetrain) Snapshot() Telemetry {
	var t Telemetry
	for _, c := range Corners() {
		w := d.wheels[c]
		t.Wheels[c] = WheelTelemetry{
			Setpoint: w.setpoint,
			Measured: w.act.MeasuredSpeed(),
			Output:   w.pid.Output(),
			Online:   w.act.IsOnline(),
		}
	}
	return t
}
