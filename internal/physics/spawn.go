package physics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/spheresim/internal/dynamo"
)

const (
	DefaultBodies    = 5
	DefaultMinRadius = 0.1
	DefaultMaxRadius = 0.4
	DefaultMaxSpeed  = 0.01
)

// SpawnConfig bounds the random initial conditions.
type SpawnConfig struct {
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
	MaxSpeed  float64 `yaml:"max_speed"`
}

func DefaultSpawn() SpawnConfig {
	return SpawnConfig{
		MinRadius: DefaultMinRadius,
		MaxRadius: DefaultMaxRadius,
		MaxSpeed:  DefaultMaxSpeed,
	}
}

func (s SpawnConfig) Validate() error {
	if !(s.MinRadius > 0) || s.MaxRadius < s.MinRadius {
		return fmt.Errorf("%w: radius range [%v, %v]", dynamo.ErrParameterBounds, s.MinRadius, s.MaxRadius)
	}
	if s.MaxRadius >= dynamo.BoxHalfExtent {
		return fmt.Errorf("%w: max radius %v does not fit the box", dynamo.ErrParameterBounds, s.MaxRadius)
	}
	if s.MaxSpeed < 0 {
		return fmt.Errorf("%w: max speed %v", dynamo.ErrParameterBounds, s.MaxSpeed)
	}
	return nil
}

// Spawn creates n bodies with uniform random radius, a center that keeps
// the sphere inside the box on every axis, and a uniform random velocity
// per axis in [-MaxSpeed, MaxSpeed]. Overlap between spawned bodies is
// allowed.
func Spawn(rng *rand.Rand, n int, cfg SpawnConfig) (*World, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", dynamo.ErrBodyCount, n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bodies := make([]dynamo.Body, 0, n)
	for i := 0; i < n; i++ {
		r := cfg.MinRadius + rng.Float64()*(cfg.MaxRadius-cfg.MinRadius)
		limit := dynamo.BoxHalfExtent - r

		var pos, vel dynamo.Vec3
		for k := 0; k < 3; k++ {
			pos[k] = rng.Float64()*2*limit - limit
			vel[k] = (rng.Float64()*2 - 1) * cfg.MaxSpeed
		}

		b, err := dynamo.NewBody(pos, vel, r)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}
	return NewWorld(bodies), nil
}
