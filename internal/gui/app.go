package gui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/spheresim/internal/audio"
	"github.com/san-kum/spheresim/internal/config"
	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/metrics"
	"github.com/san-kum/spheresim/internal/sim"
)

const (
	screenWidth  = 1280
	screenHeight = 720
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"

	maxTelemetry = 200
	dragScale    = 0.01
	wheelScale   = 0.25
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColSphere  = rl.NewColor(220, 220, 220, 255)
)

type control int

const (
	controlGravity control = iota
	controlRestitution
	controlBodies
	controlSpeed
	numControls
)

var controlNames = [numControls]string{"gravity", "restitution", "bodies", "speed"}

// Options configure the window. Zero values are usable.
type Options struct {
	Interval time.Duration
	Cue      *audio.Cue
	Logger   *log.Logger
}

type App struct {
	Session  *sim.Session
	Pacer    *sim.Pacer
	Orbit    dynamo.Orbit
	Light    dynamo.Light
	Camera   rl.Camera3D
	Mesh     []Facet
	Font     rl.Font
	Cue      *audio.Cue
	Contacts *metrics.Contacts

	Telemetry []float64
	Selected  control
	Status    string

	logger *log.Logger
	quit   bool
}

func initWindow() {
	rl.InitWindow(screenWidth, screenHeight, "spheresim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont falls back to raylib's built-in font when the system font is
// missing.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp(session *sim.Session, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	a := &App{
		Session:   session,
		Pacer:     sim.NewPacer(opts.Interval),
		Orbit:     dynamo.DefaultOrbit(),
		Mesh:      Tessellate(12, 18),
		Font:      loadFont(),
		Cue:       opts.Cue,
		Contacts:  metrics.NewContacts(),
		Telemetry: make([]float64, 0, maxTelemetry),
		logger:    logger,
	}

	sinks := dynamo.MultiSink{a.Contacts}
	if a.Cue != nil {
		a.Cue.SetEnabled(session.Controls().Sound)
		sinks = append(sinks, a.Cue)
	}
	session.SetSink(sinks)
	session.AddMetric(a.Contacts)

	a.syncCamera()
	return a
}

// Run opens the window and blocks until it is closed.
func Run(session *sim.Session, opts Options) {
	initWindow()
	defer rl.CloseWindow()

	app := NewApp(session, opts)
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !a.quit {
		a.Update()
		a.Draw()
	}
}

// syncCamera places the raylib camera on the orbit around the box center.
func (a *App) syncCamera() {
	inv := a.Orbit.Rotation().Transpose()
	a.Camera = rl.NewCamera3D(
		vec3(a.Orbit.Eye()),
		rl.NewVector3(0, 0, 0),
		vec3(inv.Mul3x1(dynamo.Vec3{0, 1, 0})),
		45.0,
		rl.CameraPerspective,
	)
}

func (a *App) Update() {
	a.handleKeys()
	a.handleMouse()

	due := a.Pacer.Due(time.Duration(rl.GetFrameTime() * float32(time.Second)))
	if a.Session.Advance(due) > 0 {
		a.Telemetry = append(a.Telemetry, a.Session.World().KineticEnergy())
		if len(a.Telemetry) > maxTelemetry {
			a.Telemetry = a.Telemetry[1:]
		}
	}
}

func (a *App) handleKeys() {
	switch {
	case rl.IsKeyPressed(rl.KeyQ):
		a.quit = true
	case rl.IsKeyPressed(rl.KeySpace):
		a.Session.TogglePause()
		a.Pacer.Reset()
	case rl.IsKeyPressed(rl.KeyN):
		if err := a.Session.Respawn(); err != nil {
			a.Status = err.Error()
		}
		a.Telemetry = a.Telemetry[:0]
	case rl.IsKeyPressed(rl.KeyTab):
		a.Selected = (a.Selected + 1) % numControls
	case rl.IsKeyPressed(rl.KeyUp):
		a.adjust(1)
	case rl.IsKeyPressed(rl.KeyDown):
		a.adjust(-1)
	case rl.IsKeyPressed(rl.KeyR):
		a.Orbit.Reset()
		a.syncCamera()
	case rl.IsKeyPressed(rl.KeyO):
		a.Light.Reset()
	case rl.IsKeyPressed(rl.KeyM):
		on := !a.Session.Controls().Sound
		a.Session.SetSound(on)
		if a.Cue != nil {
			a.Cue.SetEnabled(on)
		}
	}
}

// handleMouse orbits the camera with a left drag, zooms with the wheel and
// turns the light with a right drag.
func (a *App) handleMouse() {
	delta := rl.GetMouseDelta()
	moved := false

	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		a.Orbit.RotX += float64(delta.Y) * dragScale
		a.Orbit.RotY += float64(delta.X) * dragScale
		moved = true
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		a.Light.Rotate(float64(delta.Y)*dragScale, -float64(delta.X)*dragScale)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.Orbit.Zoom(-float64(wheel) * wheelScale)
		moved = true
	}

	if moved {
		a.syncCamera()
	}
}

func (a *App) adjust(dir int) {
	c := a.Session.Controls()
	var err error
	switch a.Selected {
	case controlGravity:
		err = a.Session.SetGravity(max(0, c.Gravity+float64(dir)*0.25))
	case controlRestitution:
		err = a.Session.SetRestitution(max(0, min(1, c.Restitution+float64(dir)*0.05)))
	case controlBodies:
		err = a.Session.SetBodyCount(max(1, min(config.MaxBodies, c.Bodies+dir)))
		a.Telemetry = a.Telemetry[:0]
	case controlSpeed:
		err = a.Session.SetMultiplier(max(1, min(config.MaxMultiplier, c.Multiplier+dir)))
	}
	a.Status = ""
	if err != nil {
		a.Status = err.Error()
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rl.BeginMode3D(a.Camera)
	a.DrawBox()
	light := a.Light.Direction()
	for i, b := range a.Session.World().Bodies {
		a.DrawSphere(b, bodyColor(i), light)
	}
	rl.EndMode3D()

	a.DrawHUD()
	a.DrawLightWidget(screenWidth-110, 130, 70)

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("spheresim", 30, 30, 24, ColSelect)

	c := a.Session.Controls()
	status, col := "RUNNING", ColSelect
	if !c.Running {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 30, 64, 16, col)

	y := 110
	for i := control(0); i < numControls; i++ {
		var val string
		switch i {
		case controlGravity:
			val = fmt.Sprintf("%.2f", c.Gravity)
		case controlRestitution:
			val = fmt.Sprintf("%.2f", c.Restitution)
		case controlBodies:
			val = fmt.Sprintf("%d", c.Bodies)
		case controlSpeed:
			val = fmt.Sprintf("x%d", c.Multiplier)
		}
		line := fmt.Sprintf("  %-12s %s", controlNames[i], val)
		colr := ColText
		if i == a.Selected {
			line, colr = fmt.Sprintf("> %-12s %s", controlNames[i], val), ColSelect
		}
		a.drawText(line, 30, y, 18, colr)
		y += 26
	}

	a.drawText(fmt.Sprintf("tick %d   contacts %d   pairs %d", a.Session.Tick(), a.Contacts.Resolved(), a.Contacts.Pairs()), 30, y+10, 14, ColText)
	if c.Sound {
		a.drawText("SOUND ON", 30, y+32, 14, ColAccent)
	}
	if a.Status != "" {
		a.drawText(a.Status, 30, y+54, 14, rl.Red)
	}

	a.DrawTelemetry()

	a.drawText("[SPACE] PAUSE  [N] NEW  [TAB/ARROWS] TUNE  [R] CAMERA  [O] LIGHT  [M] SOUND  [Q] QUIT", 420, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

// DrawTelemetry plots recent kinetic energy as a line strip.
func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal, maxVal = min(minVal, v), max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("KE: %.2e", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}
