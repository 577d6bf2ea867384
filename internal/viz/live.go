package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/swarmfield/internal/metrics"
	"github.com/san-kum/swarmfield/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	mapMargin       = 1.5
)

type viewMode int

const (
	mapView viewMode = iota
	orbitView
)

type TickMsg time.Time

// Model drives a simulation from the bubbletea tick loop and renders it.
type Model struct {
	sim           *sim.Simulation
	fps           int
	maxDt         float64
	last          time.Time
	running       bool
	view          viewMode
	width, height int
	canvas        *Canvas
	camera        *Camera
	energyHistory []float64
	collisions    []float64
	showHelp      bool
	selected      int
	actionErr     error
	err           error
}

// NewModel wraps s. fps sets the tick rate and maxDt caps the real elapsed
// time handed to one tick.
func NewModel(s *sim.Simulation, fps int, maxDt float64) Model {
	if fps < 1 {
		fps = 60
	}
	return Model{
		sim:           s,
		fps:           fps,
		maxDt:         maxDt,
		running:       true,
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		energyHistory: make([]float64, 0, historyCapacity),
		collisions:    make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Err is the error that halted the simulation, if any.
func (m Model) Err() error { return m.err }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.actionErr = m.sim.RespawnRandom(m.selected)
		case "n":
			m.selected = (m.selected + 1) % m.sim.Len()
		case "R":
			m.sim.RespawnAll()
		case "f":
			m.sim.Flatten()
		case "v":
			if m.view == mapView {
				m.view = orbitView
			} else {
				m.view = mapView
			}
		case "h", "left":
			m.camera.RotateLeft()
		case "l", "right":
			m.camera.RotateRight()
		case "j", "down":
			m.camera.ZoomIn()
		case "k", "up":
			m.camera.ZoomOut()
		case "t":
			CycleTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = max(20, msg.Width-52)
		m.height = max(8, msg.Height-4)
		m.canvas.Resize(m.width, m.height)
	case TickMsg:
		m.advance(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

// advance ticks the simulation by the real time since the previous frame,
// capped at maxDt.
func (m *Model) advance(now time.Time) {
	dt := 1 / float64(m.fps)
	if !m.last.IsZero() {
		dt = now.Sub(m.last).Seconds()
	}
	m.last = now
	if !m.running || m.err != nil || dt <= 0 {
		return
	}
	if m.maxDt > 0 {
		dt = math.Min(dt, m.maxDt)
	}

	if err := m.sim.Tick(dt); err != nil {
		m.err = err
		m.running = false
		return
	}

	ps := m.sim.Particles()
	m.energyHistory = appendCapped(m.energyHistory, metrics.TotalKineticEnergy(ps))
	m.collisions = appendCapped(m.collisions, float64(m.sim.LastCollision().Detected))
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// View renders the selected view beside the stats panel.
func (m Model) View() string {
	var main string
	if m.view == orbitView {
		main = m.drawOrbit()
	} else {
		main = m.drawMap()
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Padding(1, 2).Render(main), panelStyle().Render(m.stats()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func (m Model) drawMap() string {
	a := m.sim.Anchor()
	halfSpan := (a.IdleDistance() + 5) * mapMargin / m.camera.Zoom
	return Heightmap(m.sim, m.sim.Particles(), a.Pos(), m.width, m.height, halfSpan)
}

func (m Model) drawOrbit() string {
	m.canvas.Clear()
	a := m.sim.Anchor()
	unit := 1 / (a.IdleDistance() * mapMargin)
	local := func(p r3.Vec) r3.Vec { return r3.Scale(unit, r3.Sub(p, a.Pos())) }

	wf := NewWireframe()
	wf.AddRing(r3.Vec{}, a.IdleDistance()*unit, 48)
	wf.AddEdge(r3.Vec{}, r3.Vec{Z: 0.3})
	wf.AddPoint(r3.Vec{}, 2)
	for _, p := range m.sim.Particles() {
		wf.AddPoint(local(p.Pos), 1)
	}
	Render3D(m.canvas, wf, m.camera)
	return fg(CurrentTheme.Raised).Render(m.canvas.String())
}

func (m Model) stats() string {
	var s strings.Builder
	s.WriteString(headerStyle().Render("SWARMFIELD") + "\n")

	status := fg(CurrentTheme.Success).Bold(true).Render("RUNNING")
	switch {
	case m.err != nil:
		status = fg(CurrentTheme.Error).Bold(true).Render("HALTED")
	case !m.running:
		status = fg(CurrentTheme.Warning).Bold(true).Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	report := m.sim.LastCollision()
	fs := m.sim.FieldStats()
	maxPasses := m.sim.Config().Collision.MaxPasses

	row("Time", fmt.Sprintf("%.2fs", m.sim.Time()))
	row("Ticks", fmt.Sprintf("%d", m.sim.Steps()))
	row("Particles", fmt.Sprintf("%d (selected %d)", m.sim.Len(), m.selected))
	row("Overlaps", fmt.Sprintf("%d found, %d left", report.Detected, report.Unresolved))
	s.WriteString(labelStyle().Render("Passes") + ProgressBar(float64(report.Passes)/float64(maxPasses), 10) +
		valueStyle().Render(fmt.Sprintf(" %d/%d", report.Passes, maxPasses)) + "\n")
	row("Deforms", fmt.Sprintf("%d on %d tiles", fs.Records, fs.Tiles))
	row("Kernels", fmt.Sprintf("%d cached, %d hits", fs.Kernels.Size, fs.Kernels.Hits))
	s.WriteString(labelStyle().Render("Collisions") + Sparkline(m.collisions, 24) + "\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString("\n" + fg(CurrentTheme.Accent).Render(chart) + "\n")
	}

	if m.actionErr != nil {
		s.WriteString("\n" + fg(CurrentTheme.Warning).Width(40).Render(m.actionErr.Error()) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + fg(CurrentTheme.Error).Width(40).Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + Separator(40) + "\n")
	s.WriteString(fg(CurrentTheme.Muted).Render("SP:Pause R:Respawn N:Select F:Flatten\nV:View H/L:Rotate J/K:Zoom\nT:Theme ?:Help Q:Quit"))
	return s.String()
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  r        - Respawn selected one     ║
║  n        - Select next particle     ║
║  R        - Respawn the whole swarm  ║
║  f        - Flatten the terrain      ║
║  v        - Toggle map/orbit view    ║
║  h / l    - Rotate orbit camera      ║
║  j / k    - Zoom in / out            ║
║  t        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  q        - Quit                     ║
╚══════════════════════════════════════╝
`
