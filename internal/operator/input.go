// Package operator turns device events into normalized drive inputs.
package operator

import "github.com/san-kum/actuate/internal/control"

// Input is decoded operator intent. Axes are in [-1, 1].
type Input interface {
	TankLeft() float64
	TankRight() float64
	Forward() float64
	Strafe() float64
	Rotate() float64
	Trigger() bool
}

// Axes is a plain snapshot of every input.
type Axes struct {
	TankLeft  float64 `yaml:"tank_left"`
	TankRight float64 `yaml:"tank_right"`
	Forward   float64 `yaml:"forward"`
	Strafe    float64 `yaml:"strafe"`
	Rotate    float64 `yaml:"rotate"`
}

// Static replays whatever was last stored in it. Scenarios and tests write
// to it directly.
type Static struct {
	Axes      Axes
	TriggerOn bool
}

func (s *Static) TankLeft() float64  { return clampUnit(s.Axes.TankLeft) }
func (s *Static) TankRight() float64 { return clampUnit(s.Axes.TankRight) }
func (s *Static) Forward() float64   { return clampUnit(s.Axes.Forward) }
func (s *Static) Strafe() float64    { return clampUnit(s.Axes.Strafe) }
func (s *Static) Rotate() float64    { return clampUnit(s.Axes.Rotate) }
func (s *Static) Trigger() bool      { return s.TriggerOn }

// Snapshot reads every axis of in.
func Snapshot(in Input) Axes {
	return Axes{
		TankLeft:  in.TankLeft(),
		TankRight: in.TankRight(),
		Forward:   in.Forward(),
		Strafe:    in.Strafe(),
		Rotate:    in.Rotate(),
	}
}

func clampUnit(v float64) float64 { return control.Clamp(v, -1, 1) }
