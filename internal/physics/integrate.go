package physics

import "github.com/san-kum/spheresim/internal/dynamo"

// Integrate advances a body by one tick: position by the current velocity,
// then the vertical velocity by gravity. There is no dt; one call is one tick.
func Integrate(b *dynamo.Body, gravity float64) {
	b.Position = b.Position.Add(b.Velocity)
	b.Velocity[1] -= gravity * dynamo.GravityScale
}

// ResolveBoundary reflects, on each axis independently, the velocity of a
// sphere whose extent crosses a wall, scaled by restitution e. The position
// is left untouched. It returns the axes that were flipped.
func ResolveBoundary(b *dynamo.Body, e float64) dynamo.Axes {
	var flipped dynamo.Axes
	for i := 0; i < 3; i++ {
		p := b.Position[i]
		if p-b.Radius < -dynamo.BoxHalfExtent || p+b.Radius > dynamo.BoxHalfExtent {
			b.Velocity[i] *= -1 * e
			flipped |= dynamo.AxisBit(i)
		}
	}
	return flipped
}
