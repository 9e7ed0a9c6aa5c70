package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/metrics"
	"github.com/san-kum/spheresim/internal/physics"
	"github.com/san-kum/spheresim/internal/sim"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of phases over one world. Each step
// starts from the state the previous one left behind.
type Scenario struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Bodies      int                  `yaml:"bodies"`
	Seed        int64                `yaml:"seed"`
	Spawn       *physics.SpawnConfig `yaml:"spawn"`
	Steps       []ScenarioStep       `yaml:"steps"`
}

// ScenarioStep changes the world parameters and runs for Ticks. A nil
// parameter keeps the previous step's value.
type ScenarioStep struct {
	Name        string   `yaml:"name"`
	Gravity     *float64 `yaml:"gravity"`
	Restitution *float64 `yaml:"restitution"`
	Ticks       int      `yaml:"ticks"`
	RecordEvery int      `yaml:"record_every"`
	SaveAs      string   `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step   ScenarioStep
	Params dynamo.Params
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML and fills defaults for bodies, spawn and
// record interval.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	if sc.Bodies == 0 {
		sc.Bodies = physics.DefaultBodies
	}
	if sc.Spawn == nil {
		spawn := physics.DefaultSpawn()
		sc.Spawn = &spawn
	}
	for i := range sc.Steps {
		if sc.Steps[i].RecordEvery == 0 {
			sc.Steps[i].RecordEvery = 1
		}
		if sc.Steps[i].Name == "" {
			sc.Steps[i].Name = fmt.Sprintf("step%d", i+1)
		}
	}
	return &sc, nil
}

// RunScenario spawns the world once and runs every step on it in order.
// Results of the steps that completed are returned with any error.
func RunScenario(ctx context.Context, sc *Scenario, logger *log.Logger) ([]StepResult, error) {
	if len(sc.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	params := dynamo.DefaultParams()
	spawner := sim.New(sc.Bodies, params, *sc.Spawn)
	world, err := spawner.Spawn(sc.Seed)
	if err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		if step.Gravity != nil {
			params.Gravity = *step.Gravity
		}
		if step.Restitution != nil {
			params.Restitution = *step.Restitution
		}

		logger.Info("scenario step", "n", i+1, "of", len(sc.Steps), "name", step.Name,
			"gravity", params.Gravity, "restitution", params.Restitution, "ticks", step.Ticks)

		contacts := metrics.NewContacts()
		runner := sim.New(world.Len(), params, *sc.Spawn)
		runner.SetLogger(logger)
		runner.AddMetric(metrics.NewEnergy())
		runner.AddMetric(metrics.NewContainment())
		runner.AddMetric(contacts)
		runner.AddSink(contacts)

		cfg := dynamo.DefaultConfig()
		cfg.Ticks = step.Ticks
		cfg.RecordEvery = step.RecordEvery
		cfg.Seed = sc.Seed

		result, err := runner.RunWorld(ctx, world, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		results = append(results, StepResult{Step: step, Params: params, Result: result})
	}

	return results, nil
}

// MonteCarloConfig runs the same world parameters over consecutive seeds.
type MonteCarloConfig struct {
	Bodies int
	Params dynamo.Params
	Spawn  physics.SpawnConfig
	Trials int
	Ticks  int
	Seed   int64
}

type MonteCarloResult struct {
	Seed        int64
	Containment float64
	EnergyDrift float64
	Resolved    int
	Stable      bool // no invalid state was reported
}

func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig, logger *log.Logger) ([]MonteCarloResult, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: trials=%d", dynamo.ErrParameterBounds, cfg.Trials)
	}

	runner := sim.New(cfg.Bodies, cfg.Params, cfg.Spawn)
	runner.SetLogger(logger)
	ens := sim.NewEnsemble(runner, cfg.Trials, cfg.Seed).WithMetrics(func() []dynamo.Metric {
		return []dynamo.Metric{metrics.NewContainment()}
	})

	rc := dynamo.DefaultConfig()
	rc.Ticks = cfg.Ticks
	rc.RecordEvery = cfg.Ticks

	runs, err := ens.Run(ctx, rc)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			Seed:        cfg.Seed + int64(i),
			Containment: r.Metrics["containment"],
			EnergyDrift: r.EnergyDrift,
			Resolved:    r.Resolved,
			Stable:      len(r.Errors) == 0,
		}
	}
	return results, nil
}

// MonteCarloStats counts trials that kept every sphere inside the box on
// every tick against those that leaked at least once.
func MonteCarloStats(results []MonteCarloResult) (contained int, leaked int) {
	for _, r := range results {
		if r.Containment >= 1 {
			contained++
		} else {
			leaked++
		}
	}
	return
}
