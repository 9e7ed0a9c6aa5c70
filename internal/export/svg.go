package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/spheresim/internal/analysis"
	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG draws every set braille dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}

	width := int(float64(canvas.PixelWidth()) * scale)
	height := int(float64(canvas.PixelHeight()) * scale)

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.PixelHeight(); y++ {
		for x := 0; x < canvas.PixelWidth(); x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SceneToSVG renders the box and bodies as vector shapes seen through cam.
// Each sphere gets a radial gradient whose highlight sits toward the light.
func SceneToSVG(bodies []dynamo.Body, cam *viz.Camera, light dynamo.Light, width, height int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)

	lv := cam.Orbit.View(light.Direction())
	fx := 50 + 35*lv.X()
	fy := 50 - 35*lv.Y()
	low := int(255 * dynamo.Ambient / (1 + dynamo.Ambient))
	fmt.Fprintf(&sb, `<defs><radialGradient id="lit" fx="%.1f%%" fy="%.1f%%">
<stop offset="0%%" stop-color="#ffffff"/>
<stop offset="100%%" stop-color="rgb(%d,%d,%d)"/>
</radialGradient></defs>
`, fx, fy, low, low, low)

	sb.WriteString("<g stroke=\"#00ffff\" stroke-width=\"1\">\n")
	for _, e := range viz.BoxWireframe(dynamo.BoxHalfExtent).Edges {
		a := cam.Project(e.Start, width, height)
		b := cam.Project(e.End, width, height)
		if a.Scale == 0 || b.Scale == 0 {
			continue
		}
		fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", a.X, a.Y, b.X, b.Y)
	}
	sb.WriteString("</g>\n")

	type disk struct {
		p viz.Projection
		r float64
	}
	disks := make([]disk, 0, len(bodies))
	for _, b := range bodies {
		p := cam.Project(b.Position, width, height)
		if p.Scale > 0 {
			disks = append(disks, disk{p, b.Radius * p.Scale})
		}
	}
	sort.SliceStable(disks, func(i, j int) bool { return disks[i].p.Depth < disks[j].p.Depth })

	sb.WriteString("<g fill=\"url(#lit)\">\n")
	for _, d := range disks {
		fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"%.1f\"/>\n", d.p.X, d.p.Y, d.r)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws points as a single polyline fitted to the image
// with 10% padding.
func TrajectoryToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// TopPath is the x/z path of one body seen from above.
func TopPath(snaps []dynamo.Snapshot, body int) []analysis.Point {
	out := make([]analysis.Point, 0, len(snaps))
	for _, s := range snaps {
		if body < len(s.Bodies) {
			p := s.Bodies[body].Position
			out = append(out, analysis.Point{X: p.X(), Y: -p.Z()})
		}
	}
	return out
}
