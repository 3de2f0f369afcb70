// Package agitator runs a single geared motor as a velocity loop with a
// calibrated position integral.
//
// The subsystem tracks two independent facts about its motor: whether it is
// online and whether a zero reference has been latched. Losing the motor
// always drops calibration, so a zero taken before a disconnect is never
// trusted again.
package agitator

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/control"
)

const (
	// DefaultGearRatio is the M2006 planetary reduction.
	DefaultGearRatio          = 36.0
	DefaultTicksPerRevolution = 8192.0
)

// Actuator is the motor contract. MeasuredSpeed is shaft RPM ahead of the
// gearbox.
type Actuator interface {
	Initialize() error
	IsOnline() bool
	MeasuredSpeed() float64
	UnwrappedPositionTicks() int64
	SetCommandedOutput(out float64)
}

type Config struct {
	GearRatio          float64        `yaml:"gear_ratio"`
	TicksPerRevolution float64        `yaml:"ticks_per_revolution"`
	PID                control.Params `yaml:"pid"`
}

func DefaultConfig() Config {
	return Config{
		GearRatio:          DefaultGearRatio,
		TicksPerRevolution: DefaultTicksPerRevolution,
		PID:                control.Params{Kp: 50000, MaxOutput: 16000},
	}
}

func (c Config) Validate() error {
	if c.GearRatio <= 0 {
		return errors.Errorf("agitator: gear ratio must be positive, got %f", c.GearRatio)
	}
	if c.TicksPerRevolution <= 0 {
		return errors.Errorf("agitator: ticks per revolution must be positive, got %f", c.TicksPerRevolution)
	}
	return nil
}

// VelocitySubsystem holds the output shaft at a velocity setpoint in rad/s.
type VelocitySubsystem struct {
	cfg    Config
	act    Actuator
	pid    *control.PID
	clock  clock.Clock
	logger *zap.SugaredLogger

	setpoint   float64
	calibrated bool
	zeroAngle  float64
	lastTick   time.Time
}

func New(cfg Config, act Actuator, clk clock.Clock, logger *zap.SugaredLogger) *VelocitySubsystem {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &VelocitySubsystem{
		cfg:    cfg,
		act:    act,
		pid:    control.NewPID(cfg.PID),
		clock:  clk,
		logger: logger,
	}
}

func (s *VelocitySubsystem) Name() string { return "agitator" }

func (s *VelocitySubsystem) Initialize() error {
	if err := s.act.Initialize(); err != nil {
		return errors.Wrap(err, "agitator")
	}
	return nil
}

// Refresh runs one tick of the state machine.
func (s *VelocitySubsystem) Refresh() {
	if !s.IsOnline() && s.calibrated {
		s.calibrated = false
		s.logger.Infow("agitator offline, calibration dropped")
	}

	if !s.calibrated {
		s.CalibrateHere()
		return
	}

	now := s.clock.Now()
	dt := float64(now.Sub(s.lastTick)) / float64(time.Millisecond)
	s.lastTick = now

	out := s.pid.Step(s.setpoint-s.CurrentValue(), dt)
	s.act.SetCommandedOutput(out)
}

// SetSetpoint stores v in rad/s. It is accepted in any state.
func (s *VelocitySubsystem) SetSetpoint(v float64) { s.setpoint = v }

func (s *VelocitySubsystem) Setpoint() float64 { return s.setpoint }

// CurrentValue returns the output shaft speed in rad/s.
func (s *VelocitySubsystem) CurrentValue() float64 {
	return s.act.MeasuredSpeed() / s.cfg.GearRatio * (2 * math.Pi / 60)
}

// CurrentValueIntegral returns the output shaft angle in radians since
// calibration, or 0 when uncalibrated.
func (s *VelocitySubsystem) CurrentValueIntegral() float64 {
	if !s.calibrated {
		return 0
	}
	return s.uncalibratedAngle() - s.zeroAngle
}

// CalibrateHere latches the current angle as zero and stops the shaft. It
// fails without side effects while the motor is offline.
func (s *VelocitySubsystem) CalibrateHere() bool {
	if !s.IsOnline() {
		return false
	}
	s.zeroAngle = s.uncalibratedAngle()
	s.calibrated = true
	s.setpoint = 0
	s.pid.Reset()
	s.lastTick = s.clock.Now()
	s.logger.Infow("agitator calibrated", "zero_rad", s.zeroAngle)
	return true
}

func (s *VelocitySubsystem) IsCalibrated() bool { return s.calibrated }

func (s *VelocitySubsystem) IsOnline() bool { return s.act.IsOnline() }

// Output returns the command produced by the last PID step.
func (s *VelocitySubsystem) Output() float64 { return s.pid.Output() }

func (s *VelocitySubsystem) PID() *control.PID { return s.pid }

// ZeroReference is the latched absolute angle in radians. It is meaningful
// only while calibrated.
func (s *VelocitySubsystem) ZeroReference() float64 { return s.zeroAngle }

func (s *VelocitySubsystem) uncalibratedAngle() float64 {
	return 2 * math.Pi / s.cfg.TicksPerRevolution * float64(s.act.UnwrappedPositionTicks()) / s.cfg.GearRatio
}
