package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
)

const (
	DefaultBodies      = physics.DefaultBodies
	DefaultRestitution = 1.0
	DefaultMultiplier  = 1
	DefaultIntervalMS  = 10
	DefaultTicks       = 2000
	DefaultRecordEvery = 1
	DefaultLogLevel    = "info"

	MaxMultiplier = 64
	MaxBodies     = 500
)

type Config struct {
	Bodies      int                 `yaml:"bodies"`
	Seed        int64               `yaml:"seed"`
	Gravity     float64             `yaml:"gravity"`
	Restitution float64             `yaml:"restitution"`
	Multiplier  int                 `yaml:"multiplier"`
	IntervalMS  int                 `yaml:"interval_ms"`
	Ticks       int                 `yaml:"ticks"`
	RecordEvery int                 `yaml:"record_every"`
	Sound       bool                `yaml:"sound"`
	LogLevel    string              `yaml:"log_level"`
	Spawn       physics.SpawnConfig `yaml:"spawn"`
}

func DefaultConfig() *Config {
	return &Config{
		Bodies:      DefaultBodies,
		Gravity:     0,
		Restitution: DefaultRestitution,
		Multiplier:  DefaultMultiplier,
		IntervalMS:  DefaultIntervalMS,
		Ticks:       DefaultTicks,
		RecordEvery: DefaultRecordEvery,
		LogLevel:    DefaultLogLevel,
		Spawn:       physics.DefaultSpawn(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Validate() error {
	if c.Bodies < 1 || c.Bodies > MaxBodies {
		return fmt.Errorf("%w: bodies=%d (max %d)", dynamo.ErrBodyCount, c.Bodies, MaxBodies)
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Multiplier < 1 || c.Multiplier > MaxMultiplier {
		return fmt.Errorf("%w: multiplier=%d must be in [1,%d]", dynamo.ErrParameterBounds, c.Multiplier, MaxMultiplier)
	}
	if c.IntervalMS < 1 {
		return fmt.Errorf("%w: interval_ms=%d", dynamo.ErrParameterBounds, c.IntervalMS)
	}
	if c.Ticks < 1 {
		return fmt.Errorf("%w: ticks=%d", dynamo.ErrParameterBounds, c.Ticks)
	}
	if c.RecordEvery < 1 {
		return fmt.Errorf("%w: record_every=%d", dynamo.ErrParameterBounds, c.RecordEvery)
	}
	return c.Spawn.Validate()
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{Gravity: c.Gravity, Restitution: c.Restitution}
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

func (c *Config) RunConfig() dynamo.Config {
	rc := dynamo.DefaultConfig()
	rc.Ticks = c.Ticks
	rc.Seed = c.Seed
	rc.RecordEvery = c.RecordEvery
	return rc
}
