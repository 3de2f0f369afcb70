package robot

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/metrics"
	"github.com/san-kum/actuate/internal/operator"
	"github.com/san-kum/actuate/internal/scenario"
)

// Observer sees every sample as it is recorded.
type Observer interface {
	OnSample(s metrics.Sample)
}

type ObserverFunc func(s metrics.Sample)

func (f ObserverFunc) OnSample(s metrics.Sample) { f(s) }

type RunConfig struct {
	// Duration overrides the scenario and config durations when positive.
	Duration time.Duration
	// Decimate keeps every Nth sample in the result. Metrics and observers
	// still see every tick.
	Decimate int
}

type Result struct {
	Samples    []metrics.Sample
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Runner drives a robot from a scenario script.
type Runner struct {
	robot     *Robot
	input     *operator.Static
	metrics   []metrics.Metric
	observers []Observer
	logger    *zap.SugaredLogger
}

func NewRunner(cfg *config.Config, logger *zap.SugaredLogger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	input := &operator.Static{}
	r, err := New(cfg, input, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		robot:   r,
		input:   input,
		metrics: metrics.Standard(cfg.Chassis.WheelPID.MaxOutput),
		logger:  logger,
	}, nil
}

func (r *Runner) AddMetric(m metrics.Metric) { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }
func (r *Runner) Robot() *Robot              { return r.robot }
func (r *Runner) Input() *operator.Static    { return r.input }
func (r *Runner) Metrics() []metrics.Metric  { return r.metrics }

// Run initializes the robot and ticks it until the duration elapses or ctx
// is done. A nil scenario runs with no operator input.
func (r *Runner) Run(ctx context.Context, cfg RunConfig, sc *scenario.Scenario) (*Result, error) {
	duration := cfg.Duration
	if duration <= 0 && sc != nil {
		duration = sc.Duration
	}
	if duration <= 0 {
		duration = r.robot.cfg.Duration
	}
	if err := r.validate(sc); err != nil {
		return nil, err
	}
	if err := r.robot.Initialize(); err != nil {
		return nil, err
	}

	steps := int(duration / r.robot.tick)
	every := cfg.Decimate
	if every < 1 {
		every = 1
	}
	result := &Result{
		Samples: make([]metrics.Sample, 0, steps/every+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	script := scenario.NewScript(sc)
	name := ""
	if sc != nil {
		name = sc.Name
	}
	r.logger.Infow("run started", "scenario", name, "duration", duration, "steps", steps)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Metrics = metrics.Collect(r.metrics)
			return result, ctx.Err()
		default:
		}

		for _, ev := range script.Due(r.robot.Elapsed()) {
			r.apply(ev)
		}

		s, err := r.robot.Step()
		if err != nil {
			result.Errors = append(result.Errors, err)
			r.logger.Warnw("run stopped", "error", err, "t", s.Time)
			break
		}
		result.StepsTaken++

		for _, m := range r.metrics {
			m.Observe(s)
		}
		for _, obs := range r.observers {
			obs.OnSample(s)
		}
		if i%every == 0 {
			result.Samples = append(result.Samples, s)
		}
	}

	result.Metrics = metrics.Collect(r.metrics)
	r.logger.Infow("run finished", "steps", result.StepsTaken, "metrics", result.Metrics)
	return result, nil
}

func (r *Runner) validate(sc *scenario.Scenario) error {
	if sc == nil {
		return nil
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	known := make(map[string]bool)
	for _, n := range r.robot.MotorNames() {
		known[n] = true
	}
	for _, n := range sc.Motors() {
		if !known[n] {
			return errors.Wrapf(ErrUnknownMotor, "scenario %s names %q", sc.Name, n)
		}
	}
	return nil
}

func (r *Runner) apply(ev scenario.Event) {
	if ev.Input != nil {
		r.input.Axes = *ev.Input
	}
	if ev.Trigger != nil {
		r.input.TriggerOn = *ev.Trigger
	}
	for _, n := range ev.Disconnect {
		_ = r.robot.SetConnected(n, false)
	}
	for _, n := range ev.Reconnect {
		_ = r.robot.SetConnected(n, true)
	}
}
