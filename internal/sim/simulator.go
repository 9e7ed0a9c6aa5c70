package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
)

// Simulator runs a world headless for a fixed number of ticks.
type Simulator struct {
	bodies    int
	params    dynamo.Params
	spawn     physics.SpawnConfig
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	sinks     []dynamo.ContactSink
	logger    *log.Logger
}

func New(bodies int, params dynamo.Params, spawn physics.SpawnConfig) *Simulator {
	return &Simulator{
		bodies:    bodies,
		params:    params,
		spawn:     spawn,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    log.New(io.Discard),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer)   { s.observers = append(s.observers, o) }
func (s *Simulator) AddSink(sink dynamo.ContactSink) { s.sinks = append(s.sinks, sink) }

func (s *Simulator) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Simulator) Params() dynamo.Params { return s.params }

// Spawn builds the initial world for a seed.
func (s *Simulator) Spawn(seed int64) (*physics.World, error) {
	return physics.Spawn(rand.New(rand.NewSource(seed)), s.bodies, s.spawn)
}

// Run spawns a world from cfg.Seed and steps it cfg.Ticks times.
func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	w, err := s.Spawn(cfg.Seed)
	if err != nil {
		return nil, err
	}
	return s.RunWorld(ctx, w, cfg)
}

// RunWorld steps an existing world. The world is mutated in place.
func (s *Simulator) RunWorld(ctx context.Context, w *physics.World, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Snapshots: make([]dynamo.Snapshot, 0, cfg.Ticks/cfg.RecordEvery+2),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	counter := &contactLog{logger: s.logger, result: result}
	sink := dynamo.MultiSink(append([]dynamo.ContactSink{counter}, s.sinks...))

	result.Snapshots = append(result.Snapshots, dynamo.NewSnapshot(0, w.Bodies))
	initialEnergy := w.KineticEnergy()

	s.logger.Debug("run started", "bodies", w.Len(), "ticks", cfg.Ticks, "seed", cfg.Seed,
		"gravity", s.params.Gravity, "restitution", s.params.Restitution)

	for i := 1; i <= cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w at tick %d: %v", dynamo.ErrContextCanceled, i, ctx.Err())
		default:
		}

		counter.tick = i
		w.Step(s.params, sink)
		result.TicksTaken++

		for _, m := range s.metrics {
			m.Observe(i, w.Bodies)
		}
		for _, obs := range s.observers {
			obs.OnStep(i, w.Bodies)
		}

		if cfg.ValidateState {
			if idx, ok := w.Validate(); !ok {
				err := &dynamo.SimulationError{Tick: i, Body: idx, Wrapped: dynamo.ErrInvalidState}
				result.Errors = append(result.Errors, err)
				s.logger.Error("invalid state", "tick", i, "body", idx)
				break
			}
		}

		if i%cfg.RecordEvery == 0 || i == cfg.Ticks {
			result.Snapshots = append(result.Snapshots, dynamo.NewSnapshot(i, w.Bodies))
		}
	}

	finalEnergy := w.KineticEnergy()
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("run finished", "ticks", result.TicksTaken, "contacts", result.Resolved,
		"degenerate", result.Degenerate, "energy_drift", result.EnergyDrift)

	return result, nil
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	if cfg.RecordEvery <= 0 {
		return fmt.Errorf("record interval must be positive, got %d", cfg.RecordEvery)
	}
	if s.bodies < 1 {
		return fmt.Errorf("%w: got %d", dynamo.ErrBodyCount, s.bodies)
	}
	return s.params.Validate()
}

// RunWithCallback steps a fresh world until the callback returns false or
// cfg.Ticks is reached. The callback sees the world after every tick.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg dynamo.Config, callback func(tick int, w *physics.World) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	w, err := s.Spawn(cfg.Seed)
	if err != nil {
		return err
	}

	sink := dynamo.MultiSink(s.sinks)
	for i := 1; i <= cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w.Step(s.params, sink)

		if cfg.ValidateState {
			if idx, ok := w.Validate(); !ok {
				return &dynamo.SimulationError{Tick: i, Body: idx, Wrapped: dynamo.ErrInvalidState}
			}
		}

		if !callback(i, w) {
			return nil
		}
	}

	return nil
}

// contactLog counts contacts into a result and warns on coincident centers.
type contactLog struct {
	logger *log.Logger
	result *dynamo.Result
	tick   int
}

func (c *contactLog) OnContact(ct dynamo.Contact) {
	c.result.Contacts++
	if ct.Resolved {
		c.result.Resolved++
	}
	if ct.Degenerate {
		c.result.Degenerate++
		c.logger.Warn("coincident centers, using fallback normal", "tick", c.tick, "a", ct.A, "b", ct.B)
	}
}
