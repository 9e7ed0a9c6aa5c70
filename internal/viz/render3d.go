package viz

import (
	"math"
	"sort"

	"github.com/san-kum/spheresim/internal/dynamo"
)

const (
	rotateStep = 0.1
	zoomStep   = 0.25
	nearPlane  = 0.1
)

// Camera projects world points onto a canvas through an orbit around the
// box center.
type Camera struct {
	Orbit dynamo.Orbit
}

func NewCamera() *Camera {
	return &Camera{Orbit: dynamo.DefaultOrbit()}
}

func (c *Camera) Rotate(dx, dy float64) {
	c.Orbit.RotX += dx
	c.Orbit.RotY += dy
}

func (c *Camera) ZoomIn()  { c.Orbit.Zoom(-zoomStep) }
func (c *Camera) ZoomOut() { c.Orbit.Zoom(zoomStep) }
func (c *Camera) Reset()   { c.Orbit.Reset() }

// Projection is a point mapped to canvas pixels. Scale is the pixel length
// of one world unit at the point's depth.
type Projection struct {
	X, Y    int
	Depth   float64
	Scale   float64
	Visible bool
}

// Project maps a world point to pixel coordinates on a sw x sh canvas. At
// the default distance the unit box fills about three quarters of the
// shorter side.
func (c *Camera) Project(p dynamo.Vec3, sw, sh int) Projection {
	v := c.Orbit.View(p)
	dist := c.Orbit.Distance
	if v.Z() >= dist-nearPlane {
		return Projection{}
	}

	minDim := float64(min(sw, sh))
	scale := dist / (dist - v.Z()) * minDim / 4
	x := int(math.Round(v.X()*scale)) + sw/2
	y := int(math.Round(-v.Y()*scale)) + sh/2
	return Projection{
		X:       x,
		Y:       y,
		Depth:   v.Z(),
		Scale:   scale,
		Visible: x >= 0 && x < sw && y >= 0 && y < sh,
	}
}

type Edge struct {
	Start, End dynamo.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e dynamo.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }

// BoxWireframe is the 12 edges of an axis-aligned cube of the given half
// extent centered on the origin.
func BoxWireframe(half float64) *Wireframe {
	w, s := NewWireframe(), half
	v := []dynamo.Vec3{{-s, -s, -s}, {s, -s, -s}, {s, s, -s}, {-s, s, -s}, {-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s}}
	ei := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	for _, e := range ei {
		w.AddEdge(v[e[0]], v[e[1]])
	}
	return w
}

// RenderWireframe draws every edge with at least one visible end.
func RenderWireframe(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.PixelWidth(), c.PixelHeight()
	for _, e := range w.Edges {
		a := cam.Project(e.Start, sw, sh)
		b := cam.Project(e.End, sw, sh)
		if a.Visible || b.Visible {
			c.DrawLine(a.X, a.Y, b.X, b.Y)
		}
	}
}

// RenderSpheres draws bodies as lit, dithered disks. Far bodies are drawn
// first so nearer ones cover them. light is a world-space direction.
func RenderSpheres(c *Canvas, bodies []dynamo.Body, cam *Camera, light dynamo.Vec3) {
	if c == nil || cam == nil {
		return
	}
	sw, sh := c.PixelWidth(), c.PixelHeight()

	proj := make([]struct {
		p Projection
		r float64
	}, 0, len(bodies))
	for _, b := range bodies {
		p := cam.Project(b.Position, sw, sh)
		if p.Scale == 0 {
			continue
		}
		proj = append(proj, struct {
			p Projection
			r float64
		}{p, b.Radius * p.Scale})
	}
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].p.Depth < proj[j].p.Depth })

	lv := cam.Orbit.View(light)
	for _, s := range proj {
		drawDisk(c, s.p.X, s.p.Y, s.r, lv)
	}
}

// drawDisk shades a sphere of pixel radius r centered at (cx, cy). The
// light is in view space.
func drawDisk(c *Canvas, cx, cy int, r float64, light dynamo.Vec3) {
	if r < 0.5 {
		c.Set(cx, cy)
		return
	}
	ri := int(math.Ceil(r))
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			nx, ny := float64(dx)/r, float64(dy)/r
			d2 := nx*nx + ny*ny
			if d2 > 1 {
				continue
			}
			n := dynamo.Vec3{nx, -ny, math.Sqrt(1 - d2)}
			level := dynamo.Shade(n, light) / (1 + dynamo.Ambient)
			c.Dither(cx+dx, cy+dy, level)
		}
	}
	c.DrawCircle(cx, cy, ri)
}

// RenderLight draws the light widget: a reference sphere lit from the
// light direction as seen by an unrotated viewer, with a pointer toward
// the light's projection.
func RenderLight(c *Canvas, light dynamo.Light) {
	if c == nil {
		return
	}
	sw, sh := c.PixelWidth(), c.PixelHeight()
	cx, cy := sw/2, sh/2
	r := float64(min(sw, sh))/2 - 2

	dir := light.Direction()
	drawDisk(c, cx, cy, r*0.6, dir)

	tip := r * 0.95
	tx := cx + int(math.Round(dir.X()*tip))
	ty := cy - int(math.Round(dir.Y()*tip))
	c.DrawLine(cx, cy, tx, ty)
	c.DrawCircle(tx, ty, 1)
}
