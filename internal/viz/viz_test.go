package viz

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
	"github.com/san-kum/spheresim/internal/sim"
)

func countDots(c *Canvas) int {
	n := 0
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if c.IsSet(x, y) {
				n++
			}
		}
	}
	return n
}

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(3, 5)
	assert.True(t, c.IsSet(3, 5))
	assert.Equal(t, 1, countDots(c))

	c.Unset(3, 5)
	assert.False(t, c.IsSet(3, 5))
	assert.Equal(t, rune(brailleBlank), c.Grid[1][1])

	c.Set(-1, 0)
	c.Set(8, 0)
	c.Set(0, 8)
	assert.Zero(t, countDots(c))
}

func TestCanvasDither(t *testing.T) {
	c := NewCanvas(4, 2)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c.Dither(x, y, 1)
		}
	}
	assert.Equal(t, 64, countDots(c))

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c.Dither(x, y, 0.5)
		}
	}
	assert.Equal(t, 32, countDots(c))

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c.Dither(x, y, 0)
		}
	}
	assert.Zero(t, countDots(c))
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 3, len([]rune(lines[0])))
}

func TestCameraProjectCenter(t *testing.T) {
	cam := NewCamera()
	p := cam.Project(dynamo.Vec3{}, 100, 80)
	assert.True(t, p.Visible)
	assert.Equal(t, 50, p.X)
	assert.Equal(t, 40, p.Y)
	assert.InDelta(t, 20, p.Scale, 1e-9)

	up := cam.Project(dynamo.Vec3{0, 1, 0}, 100, 80)
	assert.Less(t, up.Y, p.Y, "+Y should be up on screen")
}

func TestCameraBehind(t *testing.T) {
	cam := NewCamera()
	p := cam.Project(dynamo.Vec3{0, 0, 5}, 100, 80)
	assert.False(t, p.Visible)
	assert.Zero(t, p.Scale)
}

func TestCameraControls(t *testing.T) {
	cam := NewCamera()
	cam.Rotate(0.3, -0.2)
	cam.ZoomOut()
	assert.Equal(t, 0.3, cam.Orbit.RotX)
	assert.Greater(t, cam.Orbit.Distance, dynamo.DefaultDistance)

	cam.Reset()
	assert.Equal(t, dynamo.DefaultOrbit(), cam.Orbit)
}

func TestBoxWireframe(t *testing.T) {
	w := BoxWireframe(1)
	require.Len(t, w.Edges, 12)
	for _, e := range w.Edges {
		assert.InDelta(t, 2, e.End.Sub(e.Start).Len(), 1e-12)
	}

	c := NewCanvas(40, 20)
	RenderWireframe(c, w, NewCamera())
	assert.Positive(t, countDots(c))
}

func TestRenderSpheresOcclusion(t *testing.T) {
	cam := NewCamera()
	front := dynamo.Body{Position: dynamo.Vec3{0, 0, 0.5}, Radius: 0.4, Mass: 0.064}
	back := dynamo.Body{Position: dynamo.Vec3{0, 0, -0.5}, Radius: 0.4, Mass: 0.064}

	lit := NewCanvas(40, 20)
	RenderSpheres(lit, []dynamo.Body{front}, cam, dynamo.Vec3{0, 0, 1})
	assert.Positive(t, countDots(lit))

	both := NewCanvas(40, 20)
	RenderSpheres(both, []dynamo.Body{front, back}, cam, dynamo.Vec3{0, 0, 1})
	reversed := NewCanvas(40, 20)
	RenderSpheres(reversed, []dynamo.Body{back, front}, cam, dynamo.Vec3{0, 0, 1})
	assert.Equal(t, both.String(), reversed.String(), "draw order must follow depth")
	assert.Equal(t, lit.String(), both.String(), "front sphere should hide the one behind it")
}

func TestRenderLight(t *testing.T) {
	c := NewCanvas(lightWidth, lightHeight)
	RenderLight(c, dynamo.Light{})
	assert.Positive(t, countDots(c))
}

func TestSparklineAndBar(t *testing.T) {
	assert.Equal(t, "[=====-----]", Bar(0.5, 10))
	assert.Equal(t, "[----------]", Bar(-1, 10))
	assert.Equal(t, "[==========]", Bar(3, 10))

	line := Sparkline([]float64{0, 1, 2, 3}, 3)
	assert.Equal(t, 3, len([]rune(line)))
	assert.Equal(t, "▁▄█", line)
}

func TestNextTheme(t *testing.T) {
	defer SetTheme(ThemeCyberpunk.Name)
	SetTheme(ThemeCyberpunk.Name)
	assert.Equal(t, ThemeRetro.Name, NextTheme().Name)
	SetTheme("nope")
	assert.Equal(t, ThemeCyberpunk.Name, CurrentTheme.Name)
	assert.Len(t, ThemeNames(), len(Themes))
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	s, err := sim.NewSession(sim.DefaultControls(), physics.DefaultSpawn(), 1, nil)
	require.NoError(t, err)
	return NewModel(s, Options{Interval: 10 * time.Millisecond})
}

func TestModelAdvance(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, 3, m.Advance(35*time.Millisecond))
	assert.Equal(t, 3, m.session.Tick())
	assert.Len(t, m.history, 1)
	assert.Len(t, m.energy, 1)

	require.NoError(t, m.session.SetMultiplier(4))
	assert.Equal(t, 8, m.Advance(15*time.Millisecond))
	assert.Equal(t, 11, m.session.Tick())
}

func TestModelPause(t *testing.T) {
	m := newTestModel(t)
	m.handleKey(" ")
	assert.False(t, m.session.Controls().Running)
	assert.Zero(t, m.Advance(time.Second))
	assert.Zero(t, m.session.Tick())

	m.handleKey(" ")
	assert.True(t, m.session.Controls().Running)
}

func TestModelTuning(t *testing.T) {
	m := newTestModel(t)

	m.handleKey("up")
	assert.Equal(t, gravityStep, m.session.Controls().Gravity)
	m.handleKey("down")
	m.handleKey("down")
	assert.Zero(t, m.session.Controls().Gravity)

	m.handleKey("tab")
	m.handleKey("up")
	assert.Equal(t, 1.0, m.session.Controls().Restitution)
	m.handleKey("down")
	assert.InDelta(t, 0.95, m.session.Controls().Restitution, 1e-12)

	m.handleKey("tab")
	m.handleKey("up")
	assert.Equal(t, 6, m.session.Controls().Bodies)
	assert.Equal(t, 6, m.session.World().Len())

	m.handleKey("tab")
	m.handleKey("down")
	assert.Equal(t, 1, m.session.Controls().Multiplier)
	m.handleKey("up")
	assert.Equal(t, 2, m.session.Controls().Multiplier)

	m.handleKey("shift+tab")
	assert.Equal(t, ControlBodies, m.selected)
}

func TestModelScrub(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 5; i++ {
		m.Advance(10 * time.Millisecond)
	}
	require.Len(t, m.history, 5)

	m.handleKey("[")
	assert.Equal(t, 3, m.playHead)
	assert.False(t, m.session.Controls().Running)
	assert.Equal(t, 4, m.frame().Tick)

	m.handleKey("]")
	m.handleKey("]")
	assert.Equal(t, -1, m.playHead)
	assert.Equal(t, m.session.Tick(), m.frame().Tick)
}

func TestModelRespawnClearsHistory(t *testing.T) {
	m := newTestModel(t)
	m.Advance(50 * time.Millisecond)
	require.NotEmpty(t, m.history)

	m.handleKey("n")
	assert.Empty(t, m.history)
	assert.Empty(t, m.energy)
	assert.Zero(t, m.session.Tick())
}

func TestModelSoundAndLight(t *testing.T) {
	m := newTestModel(t)
	m.handleKey("m")
	assert.True(t, m.session.Controls().Sound)

	m.handleKey("a")
	assert.Equal(t, rotateStep, m.light.RotY)
	m.handleKey("o")
	assert.Equal(t, dynamo.Light{}, m.light)
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	m.Advance(30 * time.Millisecond)
	m.Advance(30 * time.Millisecond)

	out := m.View()
	assert.Contains(t, out, "BOUNCING SPHERES")
	assert.Contains(t, out, "RUNNING")
	assert.Contains(t, out, "gravity")

	m.handleKey("?")
	assert.Contains(t, m.View(), "KEYBOARD SHORTCUTS")
}
