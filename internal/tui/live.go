package tui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/metrics"
)

const (
	canvasWidth     = 64
	canvasHeight    = 20
	historyCapacity = 120
	maxSpeed        = 16
	barWidth        = 20
)

type tickMsg time.Time

// gauges smooths the load bars so they do not flicker frame to frame.
type gauges struct {
	spring harmonica.Spring
	pos    [3]float64
	vel    [3]float64
}

func newGauges(fps int) gauges {
	return gauges{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
}

func (g *gauges) step(i int, target float64) float64 {
	g.pos[i], g.vel[i] = g.spring.Update(g.pos[i], g.vel[i], target)
	return g.pos[i]
}

// Model drives an experiment from bubbletea ticks and draws it.
type Model struct {
	exp     *experiment.Experiment
	fps     int
	canvas  *Canvas
	help    help.Model
	rng     *rand.Rand
	gauges  gauges
	load    [3]float64
	running bool
	speed   int
	last    metrics.Frame
	kinetic []float64
	err     error
}

// NewModel expects exp to be set up.
func NewModel(exp *experiment.Experiment, fps int) Model {
	if fps < 1 {
		fps = 30
	}
	exp.Collector().Start()
	return Model{
		exp:     exp,
		fps:     fps,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		help:    help.New(),
		rng:     rand.New(rand.NewSource(exp.Config().Spawn.Seed)),
		gauges:  newGauges(fps),
		running: true,
		speed:   1,
		kinetic: make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.running = !m.running && m.err == nil
		case key.Matches(msg, keys.Step):
			if !m.running {
				m.advance(1)
			}
		case key.Matches(msg, keys.Faster):
			m.speed = min(maxSpeed, m.speed*2)
		case key.Matches(msg, keys.Slower):
			m.speed = max(1, m.speed/2)
		case key.Matches(msg, keys.Drop):
			m.drop()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tickMsg:
		if m.running {
			m.advance(m.speed)
		}
		m.settle()
		return m, m.tick()
	}
	return m, nil
}

// advance steps up to n frames, stopping at the first failure.
func (m *Model) advance(n int) {
	for range n {
		if err := m.exp.Step(); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	frames := m.exp.Collector().Frames()
	if len(frames) == 0 {
		return
	}
	m.last = frames[len(frames)-1]
	if len(m.kinetic) == historyCapacity {
		m.kinetic = m.kinetic[1:]
	}
	m.kinetic = append(m.kinetic, m.last.Kinetic)
}

// drop spawns one particle near the top of the screen.
func (m *Model) drop() {
	cfg := m.exp.Config()
	r := cfg.Spawn.RadiusMax
	x := r + m.rng.Float64()*(cfg.Screen.Width-2*r)
	if _, err := m.exp.Solver().Spawn(r2.Vec{X: x, Y: cfg.Screen.Height - r}, r); err != nil {
		m.err = err
	}
}

func (m *Model) settle() {
	cfg := m.exp.Config()
	budget := cfg.Dt * 1000
	targets := [3]float64{
		float64(m.exp.Solver().Len()) / float64(max(1, cfg.Spawn.Count)),
		float64(m.last.MaxBucket) / 16,
		m.last.FrameMillis / budget,
	}
	for i, t := range targets {
		m.load[i] = m.gauges.step(i, min(t, 1))
	}
}

// Paused reports whether stepping is suspended.
func (m Model) Paused() bool { return !m.running }

func (m Model) Err() error { return m.err }

func (m Model) View() string {
	cfg := m.exp.Config()
	solver := m.exp.Solver()

	m.canvas.Clear()
	m.canvas.Plot(solver.Particles(), r2.Vec{X: cfg.Screen.Width, Y: cfg.Screen.Height})

	status := runningStyle.Render(fmt.Sprintf("RUNNING x%d", m.speed))
	if !m.running {
		status = pausedStyle.Render("PAUSED")
	}
	if m.err != nil {
		status = errorStyle.Render("HALTED")
	}

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("partsim :: "+cfg.Scene) + "\n")
	b.WriteString(status + "\n\n")
	b.WriteString(row("strategy", solver.Resolver().Strategy().String()) + "\n")
	b.WriteString(row("host", solver.HostName()) + "\n")
	b.WriteString(row("frame", fmt.Sprintf("%d", solver.Frame())) + "\n")
	b.WriteString(row("time", fmt.Sprintf("%.2fs", solver.Time())) + "\n")
	b.WriteString(row("particles", fmt.Sprintf("%d / %d", solver.Len(), cfg.Spawn.Count)) + "\n")
	b.WriteString(row("overlaps", fmt.Sprintf("%d (max %.3f)", m.last.OverlapPairs, m.last.MaxOverlap)) + "\n")
	b.WriteString(row("escaped", fmt.Sprintf("%d", m.last.Escaped)) + "\n")
	b.WriteString(row("frame ms", fmt.Sprintf("%.2f", m.last.FrameMillis)) + "\n\n")
	b.WriteString(row("spawned", bar(m.load[0], barWidth)) + "\n")
	b.WriteString(row("bucket", bar(m.load[1], barWidth)) + "\n")
	b.WriteString(row("budget", bar(m.load[2], barWidth)) + "\n\n")
	b.WriteString(labelStyle.Render("kinetic") + "\n")
	b.WriteString(sparkline(m.kinetic, 36))
	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render(m.err.Error()))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(b.String()),
	)
	return body + "\n" + m.help.View(keys)
}

// Run shows exp in the terminal until the user quits.
func Run(exp *experiment.Experiment, fps int) error {
	p := tea.NewProgram(NewModel(exp, fps), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
