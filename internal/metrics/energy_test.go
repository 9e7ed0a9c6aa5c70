package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/spheresim/internal/dynamo"
)

func mustBody(t *testing.T, pos, vel dynamo.Vec3, r float64) dynamo.Body {
	t.Helper()
	b, err := dynamo.NewBody(pos, vel, r)
	require.NoError(t, err)
	return b
}

func TestEnergyMean(t *testing.T) {
	m := NewEnergy()
	b := mustBody(t, dynamo.Vec3{}, dynamo.Vec3{2, 0, 0}, 1)

	m.Observe(0, []dynamo.Body{b})
	assert.InDelta(t, 2.0, m.Value(), 1e-12)

	b.Velocity = dynamo.Vec3{}
	m.Observe(1, []dynamo.Body{b})
	assert.InDelta(t, 1.0, m.Value(), 1e-12)
	assert.Equal(t, 0.0, m.Last())
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	m.Observe(0, []dynamo.Body{mustBody(t, dynamo.Vec3{}, dynamo.Vec3{1, 1, 1}, 0.5)})
	require.NotZero(t, m.Value())

	m.Reset()
	assert.Zero(t, m.Value())
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	b := mustBody(t, dynamo.Vec3{}, dynamo.Vec3{1, 0, 0}, 1)

	m.Observe(0, []dynamo.Body{b})
	b.Velocity = dynamo.Vec3{0.5, 0, 0}
	m.Observe(1, []dynamo.Body{b})
	b.Velocity = dynamo.Vec3{0.9, 0, 0}
	m.Observe(2, []dynamo.Body{b})

	assert.InDelta(t, 0.75, m.Value(), 1e-12)
	assert.Equal(t, "energy_drift", m.Name())
}

func TestMomentum(t *testing.T) {
	m := NewMomentum()
	a := mustBody(t, dynamo.Vec3{}, dynamo.Vec3{1, 0, 0}, 1)
	b := mustBody(t, dynamo.Vec3{}, dynamo.Vec3{-1, 0, 0}, 1)

	m.Observe(0, []dynamo.Body{a})
	m.Observe(1, []dynamo.Body{a, b})

	assert.InDelta(t, 0, m.Value(), 1e-12)
	assert.InDelta(t, 1, m.Peak(), 1e-12)
}

func TestContainment(t *testing.T) {
	m := NewContainment()
	assert.Equal(t, 1.0, m.Value())

	inside := mustBody(t, dynamo.Vec3{}, dynamo.Vec3{}, 0.2)
	leaking := mustBody(t, dynamo.Vec3{0, 0.95, 0}, dynamo.Vec3{}, 0.2)

	m.Observe(0, []dynamo.Body{inside})
	m.Observe(1, []dynamo.Body{inside, leaking})
	m.Observe(2, []dynamo.Body{inside})
	m.Observe(3, []dynamo.Body{inside})

	assert.InDelta(t, 0.75, m.Value(), 1e-12)
	assert.InDelta(t, 0.15, m.Worst(), 1e-12)

	m.Reset()
	assert.Equal(t, 1.0, m.Value())
	assert.Zero(t, m.Worst())
}
