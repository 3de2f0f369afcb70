package config

import (
	"sort"

	"github.com/san-kum/actuate/internal/chassis"
)

var Presets = map[string]func() *Config{
	"tank": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "tank"
		return cfg
	},
	"mecanum": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "mecanum"
		cfg.Drive = DriveOmni
		cfg.Chassis.Mixing = chassis.DefaultMecanumTable
		cfg.Chassis.Desaturate = true
		return cfg
	},
	"mecanum-clamped": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "mecanum-clamped"
		cfg.Drive = DriveOmni
		return cfg
	},
	"agitator-only": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "agitator-only"
		cfg.Drive = DriveNone
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
