package metrics

import (
	"math"

	"github.com/san-kum/spheresim/internal/dynamo"
)

func totalKinetic(bodies []dynamo.Body) float64 {
	total := 0.0
	for _, b := range bodies {
		total += b.KineticEnergy()
	}
	return total
}

// Energy reports the mean total kinetic energy over the observed ticks.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
	last        float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(tick int, bodies []dynamo.Body) {
	e.last = totalKinetic(bodies)
	e.totalEnergy += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
	e.last = 0
}

// EnergyDrift is the largest relative change of kinetic energy against the
// first observed tick. Gravity and inelastic bounces both move it.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(tick int, bodies []dynamo.Body) {
	energy := totalKinetic(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Momentum tracks the magnitude of the total linear momentum at the latest
// tick, and the peak seen so far.
type Momentum struct {
	last, peak float64
}

func NewMomentum() *Momentum { return &Momentum{} }

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Observe(tick int, bodies []dynamo.Body) {
	var p dynamo.Vec3
	for _, b := range bodies {
		p = p.Add(b.Momentum())
	}
	m.last = p.Len()
	m.peak = math.Max(m.peak, m.last)
}

func (m *Momentum) Value() float64 { return m.last }
func (m *Momentum) Peak() float64  { return m.peak }

func (m *Momentum) Reset() {
	m.last, m.peak = 0, 0
}
