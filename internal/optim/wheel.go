package optim

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/robot"
	"github.com/san-kum/actuate/internal/scenario"
)

// WheelParams are the tunable wheel loop parameter names.
var WheelParams = []string{"kp", "ki", "kd", "max_integral"}

// ApplyWheelParams sets the named wheel PID parameters on cfg.
func ApplyWheelParams(cfg *config.Config, params map[string]float64) error {
	for name, v := range params {
		switch name {
		case "kp":
			cfg.Chassis.WheelPID.Kp = v
		case "ki":
			cfg.Chassis.WheelPID.Ki = v
		case "kd":
			cfg.Chassis.WheelPID.Kd = v
		case "max_integral":
			cfg.Chassis.WheelPID.MaxIntegral = v
		case "max_output":
			cfg.Chassis.WheelPID.MaxOutput = v
		default:
			return errors.Errorf("optim: unknown wheel parameter %q", name)
		}
	}
	return nil
}

// WheelObjective scores wheel gains by running sc on a copy of base and
// reading metric from the result.
func WheelObjective(base *config.Config, sc *scenario.Scenario, metric string) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := *base
		if err := ApplyWheelParams(&cfg, params); err != nil {
			return 0, err
		}
		runner, err := robot.NewRunner(&cfg, zap.NewNop().Sugar())
		if err != nil {
			return 0, err
		}
		res, err := runner.Run(ctx, robot.RunConfig{Decimate: 1 << 30}, sc)
		if err != nil {
			return 0, err
		}
		if len(res.Errors) > 0 {
			return 0, res.Errors[0]
		}
		v, ok := res.Metrics[metric]
		if !ok {
			return 0, errors.Errorf("optim: run has no metric %q", metric)
		}
		return v, nil
	}
}
