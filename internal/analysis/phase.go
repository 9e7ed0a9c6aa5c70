package analysis

import (
	"github.com/san-kum/spheresim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait is the (position, velocity) trajectory of one body along
// one axis.
type PhasePortrait struct {
	Body, Axis int
	Points     []Point
}

// GeneratePhasePortrait collects a portrait from recorded snapshots.
// Snapshots missing the body are skipped.
func GeneratePhasePortrait(snaps []dynamo.Snapshot, body, axis int) *PhasePortrait {
	if axis < 0 || axis > 2 || body < 0 {
		return nil
	}

	portrait := &PhasePortrait{
		Body:   body,
		Axis:   axis,
		Points: make([]Point, 0, len(snaps)),
	}
	for _, s := range snaps {
		if body >= len(s.Bodies) {
			continue
		}
		b := s.Bodies[body]
		portrait.Points = append(portrait.Points, Point{X: b.Position[axis], Y: b.Velocity[axis]})
	}
	return portrait
}

// BounceSection keeps the portrait points at which the velocity along the
// axis changed sign, i.e. the body was reflected by a wall or a neighbour.
func BounceSection(portrait *PhasePortrait) *PhasePortrait {
	if portrait == nil {
		return nil
	}

	section := &PhasePortrait{Body: portrait.Body, Axis: portrait.Axis, Points: make([]Point, 0)}
	for i := 1; i < len(portrait.Points); i++ {
		prev, curr := portrait.Points[i-1].Y, portrait.Points[i].Y
		if prev*curr < 0 {
			section.Points = append(section.Points, portrait.Points[i])
		}
	}
	return section
}

// PhasePortraitToASCII plots a portrait with 10% padding and draws the
// zero axes when they are in view.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
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
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := newGrid(width, height)
	toCol := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	toRow := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for _, p := range portrait.Points {
		canvas.set(toCol(p.X), toRow(p.Y), '•')
	}

	if minX <= 0 && maxX >= 0 {
		col := toCol(0)
		for row := 0; row < height; row++ {
			if canvas.get(col, row) == ' ' {
				canvas.set(col, row, '│')
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := toRow(0)
		for col := 0; col < width; col++ {
			if canvas.get(col, row) == ' ' {
				canvas.set(col, row, '─')
			}
		}
	}

	return canvas.String()
}
