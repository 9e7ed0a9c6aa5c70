package physics

import (
	"math"

	"github.com/san-kum/spheresim/internal/dynamo"
)

// Overlaps reports whether the center distance is strictly less than the
// sum of radii. Touching spheres do not overlap. ResolvePair uses the same
// test, so a pair reported here is always one it acts on.
func Overlaps(a, b dynamo.Body) bool {
	return b.Position.Sub(a.Position).Len() < a.Radius+b.Radius
}

// Resolution is the outcome of resolving one pair.
type Resolution struct {
	Normal     dynamo.Vec3
	Impulse    float64
	Applied    bool
	Degenerate bool
}

// ResolvePair applies an impulse along the line of centers when the pair
// overlaps and is approaching. Tangential velocity is unchanged and the
// spheres are not pushed apart.
//
// Coincident centers have no line of centers; the +X axis is used instead
// and the resolution is flagged Degenerate.
func ResolvePair(a, b *dynamo.Body, e float64) Resolution {
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	if dist >= a.Radius+b.Radius {
		return Resolution{}
	}

	res := Resolution{Normal: dynamo.FallbackNormal, Degenerate: true}
	if dist > 0 && !math.IsInf(1/dist, 0) {
		res.Normal = d.Mul(1 / dist)
		res.Degenerate = false
	}

	rel := b.Velocity.Sub(a.Velocity)
	van := rel.Dot(res.Normal)
	if van > 0 {
		return res
	}

	j := -(1 + e) * van / (1/a.Mass + 1/b.Mass)
	a.Velocity = a.Velocity.Sub(res.Normal.Mul(j / a.Mass))
	b.Velocity = b.Velocity.Add(res.Normal.Mul(j / b.Mass))

	res.Impulse = j
	res.Applied = true
	return res
}
