package config

import (
	"sort"

	"github.com/san-kum/spheresim/internal/physics"
)

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

var Presets = map[string]*Config{
	"elastic": DefaultConfig(),
	"inelastic": preset(func(c *Config) {
		c.Restitution = 0.6
		c.Gravity = 1
	}),
	"settle": preset(func(c *Config) {
		c.Restitution = 0.3
		c.Gravity = 3
		c.Ticks = 5000
	}),
	"crowd": preset(func(c *Config) {
		c.Bodies = 40
		c.Spawn = physics.SpawnConfig{MinRadius: 0.05, MaxRadius: 0.15, MaxSpeed: 0.02}
	}),
	"heavy": preset(func(c *Config) {
		c.Bodies = 3
		c.Spawn = physics.SpawnConfig{MinRadius: 0.3, MaxRadius: 0.45, MaxSpeed: 0.01}
		c.Gravity = 2
	}),
	"fast": preset(func(c *Config) {
		c.Multiplier = 8
		c.Spawn.MaxSpeed = 0.03
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
