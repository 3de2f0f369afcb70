package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/actuate/internal/agitator"
	"github.com/san-kum/actuate/internal/chassis"
	"github.com/san-kum/actuate/internal/command"
	"github.com/san-kum/actuate/internal/control"
	"github.com/san-kum/actuate/internal/integrators"
	"github.com/san-kum/actuate/internal/motor"
)

const (
	DriveTank = "tank"
	DriveOmni = "omni"
	DriveNone = "none"

	DefaultDuration = 10 * time.Second
	DefaultBus      = "can1"
)

// Config is everything needed to bring up and run one robot.
type Config struct {
	Name     string        `yaml:"name"`
	Drive    string        `yaml:"drive"`
	Duration time.Duration `yaml:"duration"`

	Chassis chassis.Config                    `yaml:"chassis"`
	Wheels  [chassis.NumCorners]motor.Binding `yaml:"wheels"`
	Plant   motor.Plant                       `yaml:"plant"`

	Agitator      agitator.Config            `yaml:"agitator"`
	AgitatorMotor motor.Binding              `yaml:"agitator_motor"`
	AgitatorPlant motor.Plant                `yaml:"agitator_plant"`
	Move          command.MoveIntegralConfig `yaml:"move"`
}

func DefaultConfig() *Config {
	ch := chassis.DefaultConfig()
	ag := agitator.DefaultConfig()
	// the firmware gain chatters against the simulated plant at 2ms
	ag.PID = control.Params{Kp: 2000, Ki: 10, MaxIntegral: 10000, MaxOutput: 16000}

	return &Config{
		Name:     "default",
		Drive:    DriveTank,
		Duration: DefaultDuration,
		Chassis:  ch,
		Wheels: [chassis.NumCorners]motor.Binding{
			chassis.FrontLeft:  {Name: "LF", ID: 2, Bus: DefaultBus},
			chassis.BackLeft:   {Name: "LB", ID: 3, Bus: DefaultBus},
			chassis.FrontRight: {Name: "RF", ID: 1, Bus: DefaultBus, Inverted: true},
			chassis.BackRight:  {Name: "RB", ID: 4, Bus: DefaultBus, Inverted: true},
		},
		Plant:         motor.DefaultPlant(),
		Agitator:      ag,
		AgitatorMotor: motor.Binding{Name: "agitator", ID: 7, Bus: DefaultBus},
		AgitatorPlant: motor.Plant{TimeConstant: 0.02, RPMPerUnit: 0.9, Integrator: "rk4"},
		Move:          command.DefaultMoveIntegralConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return os.WriteFile(path, data, 0644)
}

// HasChassis reports whether the config drives wheels at all.
func (c *Config) HasChassis() bool { return c.Drive != DriveNone }

func (c *Config) Validate() error {
	switch c.Drive {
	case DriveTank, DriveOmni, DriveNone:
	default:
		return errors.Errorf("config: unknown drive %q", c.Drive)
	}
	if c.Duration <= 0 {
		return errors.Errorf("config: duration must be positive, got %s", c.Duration)
	}
	if err := c.Chassis.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}
	if err := c.Agitator.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}

	plants := map[string]motor.Plant{"plant": c.Plant, "agitator_plant": c.AgitatorPlant}
	for name, p := range plants {
		if p.TimeConstant <= 0 {
			return errors.Errorf("config: %s time constant must be positive", name)
		}
		if _, err := integrators.ByName(p.Integrator); err != nil {
			return errors.Wrapf(err, "config: %s", name)
		}
	}

	bindings := []motor.Binding{c.AgitatorMotor}
	if c.HasChassis() {
		bindings = append(bindings, c.Wheels[:]...)
	}
	seen := make(map[string]string)
	for _, b := range bindings {
		if b.ID < 1 || b.ID > 8 {
			return errors.Errorf("config: motor %s id %d out of range 1-8", b.Name, b.ID)
		}
		key := fmt.Sprintf("%s/%d", b.Bus, b.ID)
		if other, ok := seen[key]; ok {
			return errors.Errorf("config: motors %s and %s share id %d on %s", other, b.Name, b.ID, b.Bus)
		}
		seen[key] = b.Name
	}
	return nil
}
