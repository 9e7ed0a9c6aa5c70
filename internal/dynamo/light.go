package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ambient is the light level of a surface facing away from the light.
const Ambient = 0.2

// Light is a directional light steered by two angles.
type Light struct {
	RotX, RotY float64
}

// Direction points from the surface toward the light.
// With both angles at zero it is +Z.
func (l Light) Direction() Vec3 {
	return LightDirection(l.RotX, l.RotY)
}

func (l *Light) Rotate(dx, dy float64) {
	l.RotX += dx
	l.RotY += dy
}

func (l *Light) Reset() {
	l.RotX, l.RotY = 0, 0
}

func LightDirection(rotX, rotY float64) Vec3 {
	return Vec3{
		-math.Sin(rotY),
		math.Cos(rotY) * math.Sin(rotX),
		math.Cos(rotY) * math.Cos(rotX),
	}
}

// Shade returns the Lambert brightness of a surface with the given normal:
// ambient plus the clamped cosine between normal and light.
func Shade(normal, light Vec3) float64 {
	return Ambient + math.Max(normal.Dot(light), 0)
}

// Orbit is the viewing rotation and zoom shared by the renderers.
type Orbit struct {
	RotX, RotY float64
	Distance   float64
}

const DefaultDistance = 3.0

func DefaultOrbit() Orbit {
	return Orbit{Distance: DefaultDistance}
}

func (o *Orbit) Reset() {
	*o = DefaultOrbit()
}

func (o *Orbit) Zoom(delta float64) {
	o.Distance = math.Max(1.2, math.Min(12, o.Distance+delta))
}

// Rotation is the world-to-view rotation for the current angles.
func (o Orbit) Rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(o.RotX).Mul3(mgl64.Rotate3DY(o.RotY))
}

// View rotates a world point into camera space.
func (o Orbit) View(p Vec3) Vec3 {
	return o.Rotation().Mul3x1(p)
}

// Eye is the camera position in world space for a target at the origin.
func (o Orbit) Eye() Vec3 {
	return o.Rotation().Transpose().Mul3x1(Vec3{0, 0, o.Distance})
}
