package sim

import (
	"context"
	"sync"

	"github.com/san-kum/spheresim/internal/dynamo"
)

// Ensemble runs the same simulator over consecutive seeds in parallel.
// Every run gets its own world; metrics are per run and built by newMetrics.
type Ensemble struct {
	base       *Simulator
	numRuns    int
	seedStart  int64
	newMetrics func() []dynamo.Metric
}

func NewEnsemble(s *Simulator, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: s, numRuns: numRuns, seedStart: seedStart}
}

// WithMetrics sets a factory for the metrics attached to each run.
func (e *Ensemble) WithMetrics(f func() []dynamo.Metric) *Ensemble {
	e.newMetrics = f
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			sim := New(e.base.bodies, e.base.params, e.base.spawn)
			sim.SetLogger(e.base.logger)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
