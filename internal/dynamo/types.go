package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// GravityScale converts the user-facing gravity control into a per-tick
	// change of the vertical velocity.
	GravityScale = 0.0001

	// BoxHalfExtent is the half width of the container. The interior is
	// [-BoxHalfExtent, BoxHalfExtent] on every axis.
	BoxHalfExtent = 1.0
)

type Vec3 = mgl64.Vec3

// FallbackNormal is the contact normal used when two centers coincide.
var FallbackNormal = Vec3{1, 0, 0}

// Body is a non-rotating sphere. Mass is fixed at creation as Radius^3.
type Body struct {
	Position Vec3
	Velocity Vec3
	Radius   float64
	Mass     float64
}

func NewBody(pos, vel Vec3, radius float64) (Body, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Body{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return Body{
		Position: pos,
		Velocity: vel,
		Radius:   radius,
		Mass:     radius * radius * radius,
	}, nil
}

func (b Body) IsValid() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Position[i]) || !finite(b.Velocity[i]) {
			return false
		}
	}
	return b.Radius > 0 && b.Mass > 0
}

func (b Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Velocity.LenSqr()
}

func (b Body) Momentum() Vec3 {
	return b.Velocity.Mul(b.Mass)
}

// Contained reports whether the sphere lies fully inside the box.
func (b Body) Contained() bool {
	for i := 0; i < 3; i++ {
		if b.Position[i]-b.Radius < -BoxHalfExtent || b.Position[i]+b.Radius > BoxHalfExtent {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Params are the per-step physical controls.
type Params struct {
	Gravity     float64
	Restitution float64
}

func DefaultParams() Params {
	return Params{Gravity: 0, Restitution: 1}
}

func (p Params) Validate() error {
	if !finite(p.Gravity) || p.Gravity < 0 {
		return fmt.Errorf("%w: gravity %v must be >= 0", ErrParameterBounds, p.Gravity)
	}
	if !finite(p.Restitution) || p.Restitution < 0 || p.Restitution > 1 {
		return fmt.Errorf("%w: restitution %v must be in [0,1]", ErrParameterBounds, p.Restitution)
	}
	return nil
}

// Axes is a bit set of box axes.
type Axes uint8

const (
	AxisX Axes = 1 << iota
	AxisY
	AxisZ
)

func AxisBit(i int) Axes { return Axes(1) << uint(i) }

func (a Axes) Has(i int) bool { return a&AxisBit(i) != 0 }

func (a Axes) Count() int {
	n := 0
	for i := 0; i < 3; i++ {
		if a.Has(i) {
			n++
		}
	}
	return n
}

// Contact describes one overlapping pair found during a step.
// Resolved is false when the pair was already separating.
type Contact struct {
	A, B       int
	Normal     Vec3
	Impulse    float64
	Resolved   bool
	Degenerate bool
}

type ContactSink interface {
	OnContact(c Contact)
}

type ContactFunc func(c Contact)

func (f ContactFunc) OnContact(c Contact) { f(c) }

// MultiSink fans a contact out to every non-nil sink.
type MultiSink []ContactSink

func (m MultiSink) OnContact(c Contact) {
	for _, s := range m {
		if s != nil {
			s.OnContact(c)
		}
	}
}

type Metric interface {
	Name() string
	Observe(tick int, bodies []Body)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(tick int, bodies []Body)
}

// Snapshot is a copy of the body set at a tick.
type Snapshot struct {
	Tick   int
	Bodies []Body
}

func NewSnapshot(tick int, bodies []Body) Snapshot {
	c := make([]Body, len(bodies))
	copy(c, bodies)
	return Snapshot{Tick: tick, Bodies: c}
}

func (s Snapshot) KineticEnergy() float64 {
	total := 0.0
	for _, b := range s.Bodies {
		total += b.KineticEnergy()
	}
	return total
}

// Config describes a headless run. Ticks counts physics steps.
type Config struct {
	Ticks         int
	Seed          int64
	RecordEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Ticks:         1000,
		RecordEvery:   1,
		ValidateState: true,
	}
}

type Result struct {
	Snapshots   []Snapshot
	Metrics     map[string]float64
	EnergyDrift float64
	TicksTaken  int
	Contacts    int
	Resolved    int
	Degenerate  int
	Errors      []error
}

func (r *Result) Final() (Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}
