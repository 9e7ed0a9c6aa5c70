package viz

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/spheresim/internal/audio"
	"github.com/san-kum/spheresim/internal/config"
	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/metrics"
	"github.com/san-kum/spheresim/internal/sim"
)

const (
	width           = 60
	height          = 24
	lightWidth      = 14
	lightHeight     = 6
	historyCapacity = 600
	frameRate       = 60

	gravityStep     = 0.25
	restitutionStep = 0.05
)

// Control is a tunable value in the side panel.
type Control int

const (
	ControlGravity Control = iota
	ControlRestitution
	ControlBodies
	ControlSpeed
	numControls
)

func (c Control) String() string {
	switch c {
	case ControlGravity:
		return "gravity"
	case ControlRestitution:
		return "restitution"
	case ControlBodies:
		return "bodies"
	case ControlSpeed:
		return "speed"
	}
	return "?"
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Options configure a live model. Zero values are usable.
type Options struct {
	Interval time.Duration
	Cue      *audio.Cue
	Logger   *log.Logger
}

// Model is the live terminal view of a session.
type Model struct {
	session     *sim.Session
	pacer       *sim.Pacer
	camera      *Camera
	light       dynamo.Light
	cue         *audio.Cue
	logger      *log.Logger
	contacts    *metrics.Contacts
	containment *metrics.Containment

	canvas      *Canvas
	lightCanvas *Canvas
	box         *Wireframe

	energy   []float64
	history  []dynamo.Snapshot
	pool     *sim.SnapshotPool
	playHead int

	selected  Control
	showHelp  bool
	status    string
	lastFrame time.Time
}

// NewModel wires a session to the view. The session's contact sink is
// replaced by the view's contact counter and, when present, the audio cue.
func NewModel(session *sim.Session, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Model{
		session:     session,
		pacer:       sim.NewPacer(opts.Interval),
		camera:      NewCamera(),
		cue:         opts.Cue,
		logger:      logger,
		contacts:    metrics.NewContacts(),
		containment: metrics.NewContainment(),
		canvas:      NewCanvas(width, height),
		lightCanvas: NewCanvas(lightWidth, lightHeight),
		box:         BoxWireframe(dynamo.BoxHalfExtent),
		energy:      make([]float64, 0, historyCapacity),
		history:     make([]dynamo.Snapshot, 0, historyCapacity),
		pool:        sim.NewSnapshotPool(),
		playHead:    -1,
	}

	sinks := dynamo.MultiSink{m.contacts}
	if m.cue != nil {
		m.cue.SetEnabled(session.Controls().Sound)
		sinks = append(sinks, m.cue)
	}
	session.SetSink(sinks)
	session.AddMetric(m.contacts)
	session.AddMetric(m.containment)

	return m
}

func (m *Model) Init() tea.Cmd {
	m.lastFrame = time.Now()
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case TickMsg:
		now := time.Time(msg)
		elapsed := now.Sub(m.lastFrame)
		m.lastFrame = now
		m.Advance(elapsed)
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		if m.playHead != -1 {
			m.playHead = -1
		}
		m.session.TogglePause()
		m.pacer.Reset()
	case "n":
		m.respawn()
	case "tab":
		m.selected = (m.selected + 1) % numControls
	case "shift+tab":
		m.selected = (m.selected + numControls - 1) % numControls
	case "up", "k":
		m.adjust(1)
	case "down", "j":
		m.adjust(-1)
	case "[":
		m.scrub(-1)
	case "]":
		m.scrub(1)
	case "x":
		m.camera.Rotate(rotateStep, 0)
	case "X":
		m.camera.Rotate(-rotateStep, 0)
	case "y":
		m.camera.Rotate(0, rotateStep)
	case "Y":
		m.camera.Rotate(0, -rotateStep)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "r":
		m.camera.Reset()
	case "w":
		m.light.Rotate(-rotateStep, 0)
	case "s":
		m.light.Rotate(rotateStep, 0)
	case "a":
		m.light.Rotate(0, rotateStep)
	case "d":
		m.light.Rotate(0, -rotateStep)
	case "o":
		m.light.Reset()
	case "m":
		m.toggleSound()
	case "t":
		NextTheme()
	case "?":
		m.showHelp = !m.showHelp
	}
	return nil
}

// Advance runs the physics intervals that elapsed wall time makes due and
// records history. Nothing runs while replaying or paused.
func (m *Model) Advance(elapsed time.Duration) int {
	if m.playHead != -1 || !m.session.Controls().Running {
		m.pacer.Reset()
		return 0
	}

	steps := m.session.Advance(m.pacer.Due(elapsed))
	if steps == 0 {
		return 0
	}

	m.energy = append(m.energy, m.session.World().KineticEnergy())
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}

	m.history = append(m.history, m.pool.Capture(m.session.Tick(), m.session.World().Bodies))
	if len(m.history) > historyCapacity {
		m.pool.Release(m.history[0])
		m.history = m.history[1:]
	}
	return steps
}

func (m *Model) adjust(dir int) {
	c := m.session.Controls()
	var err error
	switch m.selected {
	case ControlGravity:
		err = m.session.SetGravity(max(0, c.Gravity+float64(dir)*gravityStep))
	case ControlRestitution:
		err = m.session.SetRestitution(max(0, min(1, c.Restitution+float64(dir)*restitutionStep)))
	case ControlBodies:
		n := max(1, min(config.MaxBodies, c.Bodies+dir))
		if n != c.Bodies {
			err = m.session.SetBodyCount(n)
			m.clearHistory()
		}
	case ControlSpeed:
		err = m.session.SetMultiplier(max(1, min(config.MaxMultiplier, c.Multiplier+dir)))
	}
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) respawn() {
	if err := m.session.Respawn(); err != nil {
		m.status = err.Error()
		m.logger.Error("respawn failed", "err", err)
		return
	}
	m.clearHistory()
}

func (m *Model) clearHistory() {
	for _, s := range m.history {
		m.pool.Release(s)
	}
	m.history = m.history[:0]
	m.energy = m.energy[:0]
	m.playHead = -1
}

func (m *Model) toggleSound() {
	on := !m.session.Controls().Sound
	m.session.SetSound(on)
	if m.cue != nil {
		m.cue.SetEnabled(on)
	}
	m.logger.Debug("sound toggled", "on", on)
}

// scrub moves the replay head through recorded history. Stepping past the
// newest frame returns to live mode.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.session.SetRunning(false)
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// frame is the snapshot currently on screen.
func (m *Model) frame() dynamo.Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return dynamo.Snapshot{Tick: m.session.Tick(), Bodies: m.session.World().Bodies}
}

func (m *Model) draw(bodies []dynamo.Body) {
	m.canvas.Clear()
	RenderWireframe(m.canvas, m.box, m.camera)
	RenderSpheres(m.canvas, bodies, m.camera, m.light.Direction())

	m.lightCanvas.Clear()
	RenderLight(m.lightCanvas, m.light)
}

func (m *Model) View() string {
	st := themeStyles(CurrentTheme)
	snap := m.frame()
	m.draw(snap.Bodies)

	c := m.session.Controls()
	var s strings.Builder
	s.WriteString(st.header.Render("BOUNCING SPHERES") + "\n")

	status := st.running.Render("RUNNING")
	switch {
	case m.playHead != -1:
		status = st.paused.Render(fmt.Sprintf("REPLAY (%d ticks back)", m.session.Tick()-snap.Tick))
	case !c.Running:
		status = st.paused.Render("PAUSED")
	}
	s.WriteString(status + "\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", snap.Tick))
	row("Energy", fmt.Sprintf("%.3e", snap.KineticEnergy()))
	row("Trend", Sparkline(m.energy, 20))
	row("Contacts", fmt.Sprintf("%d (%d pairs)", m.contacts.Resolved(), m.contacts.Pairs()))
	row("Rate", fmt.Sprintf("%.3f / tick", m.contacts.Rate()))
	row("Contained", fmt.Sprintf("%.1f%%", m.containment.Value()*100))
	sound := "off"
	if c.Sound {
		sound = "on"
	}
	row("Sound", sound)

	s.WriteString("\n" + st.muted.Render("CONTROLS") + "\n")
	for i := Control(0); i < numControls; i++ {
		var line string
		switch i {
		case ControlGravity:
			line = fmt.Sprintf("%-11s %s %.2f", i, Bar(c.Gravity/4, 10), c.Gravity)
		case ControlRestitution:
			line = fmt.Sprintf("%-11s %s %.2f", i, Bar(c.Restitution, 10), c.Restitution)
		case ControlBodies:
			line = fmt.Sprintf("%-11s %s %d", i, Bar(float64(c.Bodies)/50, 10), c.Bodies)
		case ControlSpeed:
			line = fmt.Sprintf("%-11s %s x%d", i, Bar(float64(c.Multiplier)/16, 10), c.Multiplier)
		}
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.muted.Render(line) + "\n")
		}
	}
	if m.status != "" {
		s.WriteString(st.warn.Render(m.status) + "\n")
	}

	s.WriteString("\n" + st.muted.Render(fmt.Sprintf("LIGHT  rx %.2f  ry %.2f", m.light.RotX, m.light.RotY)) + "\n")
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Box).Render(m.lightCanvas.String()))
	s.WriteString(st.muted.Render(Separator(30) + "\nSP:Pause N:New Q:Quit ?:Help\nTab ↑↓:Tune  WASD:Light"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		st.canvas.Render(m.canvas.String()),
		st.panel.Render(s.String()),
	)
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - New random spheres       ║
║  Q        - Quit                     ║
║  Tab      - Cycle controls           ║
║  Up/K     - Increase control         ║
║  Down/J   - Decrease control         ║
║  x/X y/Y  - Rotate camera            ║
║  +/-      - Zoom                     ║
║  R        - Reset camera             ║
║  W/A/S/D  - Rotate light             ║
║  O        - Reset light              ║
║  M        - Toggle sound             ║
║  [ / ]    - Step back/forward        ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
