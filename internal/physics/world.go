package physics

import "github.com/san-kum/spheresim/internal/dynamo"

// World owns the body arena. Bodies are addressed by index and the slice
// is only replaced wholesale, never reordered.
type World struct {
	Bodies []dynamo.Body
}

func NewWorld(bodies []dynamo.Body) *World {
	return &World{Bodies: bodies}
}

func (w *World) Len() int { return len(w.Bodies) }

// Step advances the world by one tick. Every body is integrated and bounced
// off the walls first, then every pair i<j is tested and resolved in index
// order. Each overlapping pair is reported to sink, which may be nil.
func (w *World) Step(p dynamo.Params, sink dynamo.ContactSink) {
	for i := range w.Bodies {
		b := &w.Bodies[i]
		Integrate(b, p.Gravity)
		ResolveBoundary(b, p.Restitution)
	}

	n := len(w.Bodies)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := &w.Bodies[i], &w.Bodies[j]
			if !Overlaps(*a, *b) {
				continue
			}
			res := ResolvePair(a, b, p.Restitution)
			if sink != nil {
				sink.OnContact(dynamo.Contact{
					A:          i,
					B:          j,
					Normal:     res.Normal,
					Impulse:    res.Impulse,
					Resolved:   res.Applied,
					Degenerate: res.Degenerate,
				})
			}
		}
	}
}

// StepN runs k ticks, which is how the speed multiplier is applied.
func (w *World) StepN(k int, p dynamo.Params, sink dynamo.ContactSink) {
	for i := 0; i < k; i++ {
		w.Step(p, sink)
	}
}

func (w *World) Positions() []dynamo.Vec3 {
	out := make([]dynamo.Vec3, len(w.Bodies))
	for i, b := range w.Bodies {
		out[i] = b.Position
	}
	return out
}

func (w *World) Clone() *World {
	c := make([]dynamo.Body, len(w.Bodies))
	copy(c, w.Bodies)
	return &World{Bodies: c}
}

// Validate returns the index of the first body with a non-finite component.
func (w *World) Validate() (int, bool) {
	for i, b := range w.Bodies {
		if !b.IsValid() {
			return i, false
		}
	}
	return -1, true
}

func (w *World) KineticEnergy() float64 {
	total := 0.0
	for _, b := range w.Bodies {
		total += b.KineticEnergy()
	}
	return total
}

func (w *World) Momentum() dynamo.Vec3 {
	var total dynamo.Vec3
	for _, b := range w.Bodies {
		total = total.Add(b.Momentum())
	}
	return total
}
