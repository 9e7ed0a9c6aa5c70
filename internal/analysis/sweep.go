package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/metrics"
	"github.com/san-kum/spheresim/internal/physics"
	"github.com/san-kum/spheresim/internal/sim"
)

// SweepParam names the world parameter a sweep varies.
type SweepParam string

const (
	SweepGravity     SweepParam = "gravity"
	SweepRestitution SweepParam = "restitution"
)

// SweepPoint summarizes one run at one parameter value.
type SweepPoint struct {
	Param       float64
	Energy      float64 // mean kinetic energy
	Containment float64
	ContactRate float64
	Err         error
}

// Sweep describes a parameter sweep. Every point spawns the same world
// from Seed so only the swept parameter differs between runs.
type Sweep struct {
	Param    SweepParam
	Min, Max float64
	Steps    int
	Bodies   int
	Base     dynamo.Params
	Spawn    physics.SpawnConfig
	Run      dynamo.Config
}

func (s Sweep) values() []float64 {
	steps := s.Steps
	if steps < 2 {
		steps = 2
	}
	step := (s.Max - s.Min) / float64(steps-1)
	out := make([]float64, steps)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

func (s Sweep) params(v float64) (dynamo.Params, error) {
	p := s.Base
	switch s.Param {
	case SweepGravity:
		p.Gravity = v
	case SweepRestitution:
		p.Restitution = v
	default:
		return p, fmt.Errorf("unknown sweep parameter %q", s.Param)
	}
	return p, p.Validate()
}

// Execute runs every point in parallel. Points whose run fails carry the
// error instead of aborting the sweep; only an unknown parameter or a
// canceled context fails the whole call.
func (s Sweep) Execute(ctx context.Context) ([]SweepPoint, error) {
	if s.Param != SweepGravity && s.Param != SweepRestitution {
		return nil, fmt.Errorf("unknown sweep parameter %q", s.Param)
	}

	values := s.values()
	points := make([]SweepPoint, len(values))

	dynamo.ParallelFor(len(values), 1, func(start, end int) {
		for i := start; i < end; i++ {
			points[i] = s.runPoint(ctx, values[i])
		}
	})

	if err := ctx.Err(); err != nil {
		return points, fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, err)
	}
	return points, nil
}

func (s Sweep) runPoint(ctx context.Context, v float64) SweepPoint {
	pt := SweepPoint{Param: v}

	p, err := s.params(v)
	if err != nil {
		pt.Err = err
		return pt
	}

	energy := metrics.NewEnergy()
	containment := metrics.NewContainment()
	contacts := metrics.NewContacts()

	runner := sim.New(s.Bodies, p, s.Spawn)
	runner.AddMetric(energy)
	runner.AddMetric(containment)
	runner.AddMetric(contacts)
	runner.AddSink(contacts)

	if _, err := runner.Run(ctx, s.Run); err != nil {
		pt.Err = err
		return pt
	}

	pt.Energy = energy.Value()
	pt.Containment = containment.Value()
	pt.ContactRate = contacts.Rate()
	return pt
}

// SweepToASCII plots one column per point, scaled to the largest value.
// field selects "energy", "containment" or "contacts".
func SweepToASCII(points []SweepPoint, field string, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	pick := func(p SweepPoint) float64 {
		switch field {
		case "containment":
			return p.Containment
		case "contacts":
			return p.ContactRate
		default:
			return p.Energy
		}
	}

	maxVal := 0.0
	for _, p := range points {
		if p.Err == nil && pick(p) > maxVal {
			maxVal = pick(p)
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	canvas := newGrid(width, height)
	for i, p := range points {
		if p.Err != nil {
			continue
		}
		col := i * width / len(points)
		row := height - 1 - int(pick(p)/maxVal*float64(height-1))
		canvas.set(col, row, '•')
	}

	return canvas.String()
}

type grid [][]rune

func newGrid(width, height int) grid {
	g := make(grid, height)
	for i := range g {
		g[i] = []rune(strings.Repeat(" ", width))
	}
	return g
}

func (g grid) set(col, row int, r rune) bool {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return false
	}
	g[row][col] = r
	return true
}

func (g grid) get(col, row int) rune {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return 0
	}
	return g[row][col]
}

func (g grid) String() string {
	var sb strings.Builder
	for _, row := range g {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
