package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
)

const dropScenario = `
name: drop
bodies: 3
seed: 7
steps:
  - name: float
    ticks: 50
  - name: fall
    gravity: 2
    restitution: 0.5
    ticks: 40
    record_every: 10
  - ticks: 30
`

func TestParseScenarioDefaults(t *testing.T) {
	sc, err := ParseScenario([]byte(dropScenario))
	require.NoError(t, err)

	assert.Equal(t, "drop", sc.Name)
	assert.Equal(t, 3, sc.Bodies)
	require.NotNil(t, sc.Spawn)
	assert.Equal(t, physics.DefaultSpawn(), *sc.Spawn)
	require.Len(t, sc.Steps, 3)
	assert.Equal(t, 1, sc.Steps[0].RecordEvery)
	assert.Equal(t, 10, sc.Steps[1].RecordEvery)
	assert.Equal(t, "step3", sc.Steps[2].Name)
	assert.Nil(t, sc.Steps[0].Gravity)
}

func TestParseScenarioEmpty(t *testing.T) {
	_, err := ParseScenario([]byte("name: nothing\n"))
	assert.ErrorIs(t, err, ErrEmptyScenario)
}

func TestRunScenarioCarriesState(t *testing.T) {
	sc, err := ParseScenario([]byte(dropScenario))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), sc, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, dynamo.Params{Gravity: 0, Restitution: 1}, results[0].Params)
	assert.Equal(t, dynamo.Params{Gravity: 2, Restitution: 0.5}, results[1].Params)
	// the last step keeps the values set before it
	assert.Equal(t, results[1].Params, results[2].Params)

	assert.Equal(t, 50, results[0].Result.TicksTaken)
	assert.Len(t, results[1].Result.Snapshots, 5)

	// each step starts where the previous one stopped
	for i := 1; i < len(results); i++ {
		prev, ok := results[i-1].Result.Final()
		require.True(t, ok)
		assert.Equal(t, prev.Bodies, results[i].Result.Snapshots[0].Bodies)
	}
}

func TestRunScenarioStepError(t *testing.T) {
	bad := -1.0
	sc := &Scenario{
		Bodies: 2,
		Spawn:  &physics.SpawnConfig{MinRadius: 0.1, MaxRadius: 0.2, MaxSpeed: 0.01},
		Steps: []ScenarioStep{
			{Name: "ok", Ticks: 5, RecordEvery: 1},
			{Name: "bad", Restitution: &bad, Ticks: 5, RecordEvery: 1},
		},
	}

	results, err := RunScenario(context.Background(), sc, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrParameterBounds))
	assert.Len(t, results, 1)
}

func TestMonteCarlo(t *testing.T) {
	cfg := MonteCarloConfig{
		Bodies: 4,
		Params: dynamo.DefaultParams(),
		Spawn:  physics.DefaultSpawn(),
		Trials: 3,
		Ticks:  100,
		Seed:   10,
	}

	results, err := RunMonteCarlo(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, int64(10+i), r.Seed)
		assert.True(t, r.Stable)
		assert.GreaterOrEqual(t, r.Containment, 0.0)
		assert.LessOrEqual(t, r.Containment, 1.0)
	}

	contained, leaked := MonteCarloStats(results)
	assert.Equal(t, 3, contained+leaked)

	_, err = RunMonteCarlo(context.Background(), MonteCarloConfig{}, nil)
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
}
