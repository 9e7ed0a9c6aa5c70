package sim

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
)

// Session is the interactive driver: it owns the world and its controls and
// advances in whole intervals of Multiplier ticks each. It is not safe for
// concurrent use; the renderer that owns it steps it on its own goroutine.
type Session struct {
	world    *physics.World
	controls Controls
	spawn    physics.SpawnConfig
	rng      *rand.Rand
	seed     int64
	tick     int
	sink     dynamo.ContactSink
	metrics  []dynamo.Metric
	logger   *log.Logger
}

func NewSession(c Controls, spawn physics.SpawnConfig, seed int64, logger *log.Logger) (*Session, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{
		controls: c,
		spawn:    spawn,
		rng:      rand.New(rand.NewSource(seed)),
		seed:     seed,
		logger:   logger,
	}
	if err := s.Respawn(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) World() *physics.World { return s.world }
func (s *Session) Controls() Controls    { return s.controls }
func (s *Session) Tick() int             { return s.tick }
func (s *Session) Seed() int64           { return s.seed }

func (s *Session) SetSink(sink dynamo.ContactSink) { s.sink = sink }

func (s *Session) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

func (s *Session) Snapshot() dynamo.Snapshot {
	return dynamo.NewSnapshot(s.tick, s.world.Bodies)
}

// Respawn replaces every body with a fresh random set of the current size.
// Metrics are reset since they describe the old population.
func (s *Session) Respawn() error {
	w, err := physics.Spawn(s.rng, s.controls.Bodies, s.spawn)
	if err != nil {
		return err
	}
	s.world = w
	s.tick = 0
	for _, m := range s.metrics {
		m.Reset()
	}
	s.logger.Debug("spawned", "bodies", w.Len())
	return nil
}

func (s *Session) SetGravity(g float64) error {
	c := s.controls
	c.Gravity = g
	return s.apply(c)
}

func (s *Session) SetRestitution(e float64) error {
	c := s.controls
	c.Restitution = e
	return s.apply(c)
}

func (s *Session) SetMultiplier(k int) error {
	c := s.controls
	c.Multiplier = k
	return s.apply(c)
}

// SetBodyCount changes the population size. Any change discards the current
// bodies and spawns a new random set.
func (s *Session) SetBodyCount(n int) error {
	if n == s.controls.Bodies {
		return nil
	}
	c := s.controls
	c.Bodies = n
	if err := s.apply(c); err != nil {
		return err
	}
	return s.Respawn()
}

func (s *Session) SetRunning(running bool) { s.controls.Running = running }

func (s *Session) TogglePause() bool {
	s.controls.Running = !s.controls.Running
	return s.controls.Running
}

func (s *Session) SetSound(on bool) { s.controls.Sound = on }

func (s *Session) apply(c Controls) error {
	if err := c.Validate(); err != nil {
		s.logger.Warn("rejected control change", "err", err)
		return fmt.Errorf("controls: %w", err)
	}
	s.controls = c
	return nil
}

// Advance runs the given number of intervals and returns the ticks taken.
// A paused session takes none.
func (s *Session) Advance(intervals int) int {
	if !s.controls.Running || intervals <= 0 {
		return 0
	}
	p := s.controls.Params()
	steps := intervals * s.controls.Multiplier
	for i := 0; i < steps; i++ {
		s.world.Step(p, s.sink)
		s.tick++
		for _, m := range s.metrics {
			m.Observe(s.tick, s.world.Bodies)
		}
	}
	return steps
}
