package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 4)

	if got := c.Dots(); got != 2 {
		t.Errorf("dots = %d, want 2", got)
	}
	if c.Grid[0][0] != brailleBlank|0x1 || c.Grid[0][1] != brailleBlank|0x80 {
		t.Errorf("grid = %q", c.String())
	}

	c.Clear()
	if c.Dots() != 0 {
		t.Error("clear left dots")
	}
}

func TestCanvasPlot(t *testing.T) {
	c := NewCanvas(10, 5) // 20 x 20 dots
	screen := r2.Vec{X: 100, Y: 100}
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 2, Y: 98}, 0.1),
		dynamo.NewParticle(r2.Vec{X: 50, Y: 50}, 20),
	}
	c.Plot(ps[:1], screen)
	if c.Grid[0][0] == brailleBlank {
		t.Error("particle near the top left not drawn in the top left cell")
	}

	c.Clear()
	c.Plot(ps[1:], screen)
	// radius 4 dots: roughly pi*16 dots lit
	if n := c.Dots(); n < 40 || n > 60 {
		t.Errorf("filled circle lit %d dots", n)
	}
	if strings.Count(c.String(), "\n") != 4 {
		t.Error("expected one line per row")
	}
}

func TestBarAndSparkline(t *testing.T) {
	if got := []rune(bar(0.5, 10)); !strings.Contains(string(got), "█████░░░░░") {
		t.Errorf("bar = %q", string(got))
	}
	if !strings.Contains(bar(2, 4), "████") {
		t.Error("bar not clamped")
	}
	if got := sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	if got := []rune(sparkline([]float64{0, 1, 2, 3}, 3)); len(got) != 3 || got[2] != '█' || got[0] != '▁' {
		t.Errorf("sparkline = %q", string(got))
	}
}

func newModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scene = "test"
	cfg.Screen = config.ScreenConfig{Width: 300, Height: 200}
	cfg.Spawn.Count = 40
	cfg.Spawn.Pattern = "lattice"

	exp := experiment.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(exp.Close)
	return NewModel(exp, 30)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelTicks(t *testing.T) {
	m := newModel(t)
	for range 3 {
		m = update(t, m, tickMsg(time.Now()))
	}
	if got := m.exp.Solver().Frame(); got != 3 {
		t.Errorf("frame = %d, want 3", got)
	}
	if m.exp.Solver().Len() != 40 {
		t.Errorf("particles = %d", m.exp.Solver().Len())
	}
	if m.load[0] <= 0 {
		t.Error("spawn gauge did not move")
	}

	view := m.View()
	for _, want := range []string{"partsim :: test", "spatial_hash", "RUNNING"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelPauseAndStep(t *testing.T) {
	m := newModel(t)
	m = update(t, m, runes("p"))
	if !m.Paused() {
		t.Fatal("not paused")
	}
	m = update(t, m, tickMsg(time.Now()))
	if m.exp.Solver().Frame() != 0 {
		t.Error("paused model advanced on tick")
	}
	m = update(t, m, runes("n"))
	if m.exp.Solver().Frame() != 1 {
		t.Error("step did not advance one frame")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view does not show pause")
	}
}

func TestModelSpeedAndDrop(t *testing.T) {
	m := newModel(t)
	m = update(t, m, runes("+"))
	m = update(t, m, runes("+"))
	if m.speed != 4 {
		t.Errorf("speed = %d", m.speed)
	}
	m = update(t, m, tickMsg(time.Now()))
	if m.exp.Solver().Frame() != 4 {
		t.Errorf("frame = %d, want 4", m.exp.Solver().Frame())
	}
	for range 5 {
		m = update(t, m, runes("-"))
	}
	if m.speed != 1 {
		t.Errorf("speed = %d", m.speed)
	}

	before := m.exp.Solver().Len()
	m = update(t, m, runes("d"))
	if m.exp.Solver().Len() != before+1 || m.Err() != nil {
		t.Errorf("drop: %d -> %d, err %v", before, m.exp.Solver().Len(), m.Err())
	}
}

func TestModelQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
