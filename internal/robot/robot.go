// Package robot wires simulated motors, subsystems and commands into one
// machine that advances a tick at a time on a simulated clock.
package robot

import (
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/agitator"
	"github.com/san-kum/actuate/internal/chassis"
	"github.com/san-kum/actuate/internal/command"
	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/metrics"
	"github.com/san-kum/actuate/internal/motor"
	"github.com/san-kum/actuate/internal/operator"
)

// ErrUnknownMotor is returned when a motor name is not part of the robot.
var ErrUnknownMotor = errors.New("robot: unknown motor")

type Robot struct {
	cfg    *config.Config
	clock  *clock.Mock
	start  time.Time
	tick   time.Duration
	input  operator.Input
	logger *zap.SugaredLogger

	motors   map[string]*motor.Sim
	chassis  *chassis.Drivetrain
	agitator *agitator.VelocitySubsystem
	move     *command.MoveIntegral
	drive    command.Command
	sched    *command.Scheduler
}

// New builds a robot from cfg. The robot owns a mock clock that only moves
// when Tick is called.
func New(cfg *config.Config, input operator.Input, logger *zap.SugaredLogger) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "robot")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if input == nil {
		input = &operator.Static{}
	}

	clk := clock.NewMock()
	r := &Robot{
		cfg:    cfg,
		clock:  clk,
		start:  clk.Now(),
		tick:   cfg.Chassis.TickPeriod,
		input:  input,
		logger: logger,
		motors: make(map[string]*motor.Sim),
		sched:  command.NewScheduler(logger.Named("scheduler")),
	}

	if cfg.HasChassis() {
		var acts [chassis.NumCorners]chassis.Actuator
		for _, c := range chassis.Corners() {
			m, err := r.addMotor(cfg.Wheels[c], cfg.Plant)
			if err != nil {
				return nil, err
			}
			acts[c] = m
		}
		dt, err := chassis.New(cfg.Chassis, acts, logger.Named("chassis"))
		if err != nil {
			return nil, errors.Wrap(err, "robot")
		}
		r.chassis = dt
		r.sched.Register(dt)

		maxMPS := cfg.Chassis.MaxChassisSpeedMPS
		if cfg.Drive == config.DriveOmni {
			r.drive = command.NewOmniDrive(dt, input, maxMPS)
		} else {
			r.drive = command.NewTankDrive(dt, input, maxMPS)
		}
		if err := r.sched.SetDefault(dt, r.drive); err != nil {
			return nil, errors.Wrap(err, "robot")
		}
	}

	m, err := r.addMotor(cfg.AgitatorMotor, cfg.AgitatorPlant)
	if err != nil {
		return nil, err
	}
	r.agitator = agitator.New(cfg.Agitator, m, clk, logger.Named("agitator"))
	r.sched.Register(r.agitator)
	r.move = command.NewMoveIntegral(r.agitator, cfg.Move)
	r.sched.OnPress(input.Trigger, r.move)

	logger.Infow("robot built", "name", cfg.Name, "drive", cfg.Drive, "tick", r.tick, "motors", r.MotorNames())
	return r, nil
}

func (r *Robot) addMotor(b motor.Binding, p motor.Plant) (*motor.Sim, error) {
	if _, dup := r.motors[b.Name]; dup {
		return nil, errors.Errorf("robot: duplicate motor name %q", b.Name)
	}
	m, err := motor.NewSim(b, p)
	if err != nil {
		return nil, errors.Wrap(err, "robot")
	}
	r.motors[b.Name] = m
	return m, nil
}

// Initialize brings up every subsystem.
func (r *Robot) Initialize() error {
	if err := r.sched.Initialize(); err != nil {
		return errors.Wrap(err, "robot")
	}
	return nil
}

// Tick runs the scheduler once, then advances every plant and the clock by
// one tick period.
func (r *Robot) Tick() error {
	r.sched.Run()

	var err error
	for _, name := range r.MotorNames() {
		err = multierr.Append(err, r.motors[name].Advance(r.tick))
	}
	r.clock.Add(r.tick)
	return err
}

// Step ticks once and returns the resulting sample.
func (r *Robot) Step() (metrics.Sample, error) {
	err := r.Tick()
	return r.Sample(), err
}

// Sample reads the current telemetry.
func (r *Robot) Sample() metrics.Sample {
	s := metrics.Sample{Time: r.Elapsed().Seconds()}
	if r.chassis != nil {
		tel := r.chassis.Snapshot()
		for c, w := range tel.Wheels {
			s.Wheels[c] = metrics.WheelSample{
				Setpoint: w.Setpoint,
				Measured: w.Measured,
				Output:   w.Output,
				Online:   w.Online,
			}
		}
	}
	s.Agitator = metrics.AgitatorSample{
		Setpoint:   r.agitator.Setpoint(),
		Velocity:   r.agitator.CurrentValue(),
		Integral:   r.agitator.CurrentValueIntegral(),
		Output:     r.agitator.Output(),
		Calibrated: r.agitator.IsCalibrated(),
		Online:     r.agitator.IsOnline(),
	}
	return s
}

// SetConnected simulates a motor's bus link dropping or returning.
func (r *Robot) SetConnected(name string, connected bool) error {
	m, ok := r.motors[name]
	if !ok {
		return errors.Wrap(ErrUnknownMotor, name)
	}
	m.SetConnected(connected)
	r.logger.Debugw("motor link changed", "motor", name, "connected", connected, "t", r.Elapsed())
	return nil
}

func (r *Robot) Motor(name string) (*motor.Sim, bool) {
	m, ok := r.motors[name]
	return m, ok
}

func (r *Robot) MotorNames() []string {
	names := make([]string, 0, len(r.motors))
	for n := range r.motors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Robot) Elapsed() time.Duration { return r.clock.Now().Sub(r.start) }

func (r *Robot) TickPeriod() time.Duration { return r.tick }

func (r *Robot) Config() *config.Config { return r.cfg }

// Chassis is nil for robots without a drive.
func (r *Robot) Chassis() *chassis.Drivetrain { return r.chassis }

func (r *Robot) Agitator() *agitator.VelocitySubsystem { return r.agitator }

func (r *Robot) Scheduler() *command.Scheduler { return r.sched }

// Moving reports whether an index move is in progress.
func (r *Robot) Moving() bool { return r.sched.IsScheduled(r.move) }
