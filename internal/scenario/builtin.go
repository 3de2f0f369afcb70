package scenario

import (
	"sort"
	"time"

	"github.com/san-kum/actuate/internal/operator"
)

func boolp(b bool) *bool { return &b }

func axes(a operator.Axes) *operator.Axes { return &a }

var builtins = map[string]func() *Scenario{
	"idle": func() *Scenario {
		return &Scenario{
			Name:        "idle",
			Description: "no input; the agitator calibrates and holds still",
			Duration:    2 * time.Second,
		}
	},
	"square": func() *Scenario {
		return &Scenario{
			Name:        "square",
			Description: "forward, right, back, left at half stick",
			Duration:    4 * time.Second,
			Events: []Event{
				{At: 0, Input: axes(operator.Axes{Forward: 0.5, TankLeft: 0.5, TankRight: 0.5})},
				{At: time.Second, Input: axes(operator.Axes{Strafe: 0.5, TankLeft: 0.5, TankRight: -0.5})},
				{At: 2 * time.Second, Input: axes(operator.Axes{Forward: -0.5, TankLeft: -0.5, TankRight: -0.5})},
				{At: 3 * time.Second, Input: axes(operator.Axes{Strafe: -0.5, TankLeft: -0.5, TankRight: 0.5})},
			},
		}
	},
	"spin": func() *Scenario {
		return &Scenario{
			Name:        "spin",
			Description: "full stick rotation in place, then stop",
			Duration:    3 * time.Second,
			Events: []Event{
				{At: 0, Input: axes(operator.Axes{Rotate: 1, TankLeft: 1, TankRight: -1})},
				{At: 2 * time.Second, Input: axes(operator.Axes{})},
			},
		}
	},
	"index": func() *Scenario {
		return &Scenario{
			Name:        "index",
			Description: "three agitator index steps",
			Duration:    3 * time.Second,
			Events: []Event{
				{At: 500 * time.Millisecond, Trigger: boolp(true)},
				{At: 600 * time.Millisecond, Trigger: boolp(false)},
				{At: 1200 * time.Millisecond, Trigger: boolp(true)},
				{At: 1300 * time.Millisecond, Trigger: boolp(false)},
				{At: 1900 * time.Millisecond, Trigger: boolp(true)},
				{At: 2000 * time.Millisecond, Trigger: boolp(false)},
			},
		}
	},
	"dropout": func() *Scenario {
		return &Scenario{
			Name:        "dropout",
			Description: "agitator link drops mid-move and comes back",
			Duration:    3 * time.Second,
			Events: []Event{
				{At: 200 * time.Millisecond, Input: axes(operator.Axes{Forward: 0.3, TankLeft: 0.3, TankRight: 0.3})},
				{At: 500 * time.Millisecond, Trigger: boolp(true)},
				{At: 520 * time.Millisecond, Trigger: boolp(false)},
				{At: 550 * time.Millisecond, Disconnect: []string{"agitator", "RB"}},
				{At: 1500 * time.Millisecond, Reconnect: []string{"agitator", "RB"}},
				{At: 2000 * time.Millisecond, Trigger: boolp(true)},
				{At: 2020 * time.Millisecond, Trigger: boolp(false)},
			},
		}
	},
}

// Builtin returns a fresh copy of a named scenario.
func Builtin(name string) (*Scenario, bool) {
	fn, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
