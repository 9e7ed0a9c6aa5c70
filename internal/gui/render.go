package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/spheresim/internal/dynamo"
)

// Facet is one triangle of the unit sphere with its outward normal. The
// vertices wind counter-clockwise seen from outside.
type Facet struct {
	A, B, C dynamo.Vec3
	Normal  dynamo.Vec3
}

// Tessellate builds a unit sphere from rings latitude bands and slices
// longitude segments.
func Tessellate(rings, slices int) []Facet {
	rings, slices = max(rings, 2), max(slices, 3)
	vertex := func(i, j int) dynamo.Vec3 {
		theta := math.Pi * float64(i) / float64(rings)
		phi := 2 * math.Pi * float64(j) / float64(slices)
		return dynamo.Vec3{
			math.Sin(theta) * math.Cos(phi),
			math.Cos(theta),
			math.Sin(theta) * math.Sin(phi),
		}
	}

	facets := make([]Facet, 0, 2*rings*slices)
	add := func(a, b, c dynamo.Vec3) {
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-12 {
			return
		}
		centroid := a.Add(b).Add(c)
		if n.Dot(centroid) < 0 {
			b, c = c, b
		}
		facets = append(facets, Facet{A: a, B: b, C: c, Normal: centroid.Normalize()})
	}

	for i := 0; i < rings; i++ {
		for j := 0; j < slices; j++ {
			a, b := vertex(i, j), vertex(i+1, j)
			c, d := vertex(i+1, j+1), vertex(i, j+1)
			add(a, b, c)
			add(a, c, d)
		}
	}
	return facets
}

// ShadeColor scales base by a Lambert level, clamped to full brightness.
func ShadeColor(base rl.Color, level float64) rl.Color {
	scale := func(c uint8) uint8 {
		return uint8(math.Max(0, math.Min(255, float64(c)*level)))
	}
	return rl.NewColor(scale(base.R), scale(base.G), scale(base.B), base.A)
}

func vec3(v dynamo.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

// DrawSphere draws a body lit by a world-space light, one flat-shaded
// facet at a time.
func (a *App) DrawSphere(b dynamo.Body, base rl.Color, light dynamo.Vec3) {
	for _, f := range a.Mesh {
		col := ShadeColor(base, dynamo.Shade(f.Normal, light))
		rl.DrawTriangle3D(
			vec3(b.Position.Add(f.A.Mul(b.Radius))),
			vec3(b.Position.Add(f.B.Mul(b.Radius))),
			vec3(b.Position.Add(f.C.Mul(b.Radius))),
			col,
		)
	}
}

func (a *App) DrawBox() {
	side := float32(2 * dynamo.BoxHalfExtent)
	rl.DrawCubeWires(rl.NewVector3(0, 0, 0), side, side, side, ColAccent)
}

// DrawLightWidget draws a reference sphere lit from the current light
// direction as an unrotated viewer would see it, with a pointer toward the
// light.
func (a *App) DrawLightWidget(cx, cy, radius float32) {
	dir := a.Light.Direction()
	r := radius * 0.6

	project := func(v dynamo.Vec3, s float32) rl.Vector2 {
		return rl.NewVector2(cx+float32(v.X())*s, cy-float32(v.Y())*s)
	}

	for _, f := range a.Mesh {
		if f.Normal.Z() <= 0 {
			continue
		}
		p1, p2, p3 := project(f.A, r), project(f.B, r), project(f.C, r)
		// raylib wants counter-clockwise order on screen
		if (p2.X-p1.X)*(p3.Y-p1.Y)-(p2.Y-p1.Y)*(p3.X-p1.X) > 0 {
			p2, p3 = p3, p2
		}
		rl.DrawTriangle(p1, p2, p3, ShadeColor(ColSphere, dynamo.Shade(f.Normal, dir)))
	}

	rl.DrawCircleLines(int32(cx), int32(cy), radius, ColTextDim)
	tip := project(dir, radius*0.95)
	rl.DrawLineV(rl.NewVector2(cx, cy), tip, ColSelect)
	rl.DrawCircleV(tip, 4, ColSelect)
	a.drawText("light", int(cx-radius), int(cy+radius+8), 14, ColText)
}

// palette gives each body a stable color by index.
var palette = []rl.Color{
	rl.NewColor(235, 90, 90, 255),
	rl.NewColor(90, 200, 120, 255),
	rl.NewColor(90, 150, 240, 255),
	rl.NewColor(240, 200, 80, 255),
	rl.NewColor(200, 110, 230, 255),
	rl.NewColor(80, 210, 220, 255),
}

func bodyColor(i int) rl.Color {
	return palette[i%len(palette)]
}
