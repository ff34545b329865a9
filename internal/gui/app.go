package gui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/physics"
)

const (
	panelWidth   = 260
	telemetryCap = 240
	maxGravity   = 6000
)

var (
	ColBg       = rl.NewColor(10, 10, 10, 255)
	ColParticle = rl.NewColor(180, 180, 180, 255)
	ColText     = rl.NewColor(140, 140, 140, 255)
	ColTextDim  = rl.NewColor(60, 60, 60, 255)
	ColGrid     = rl.NewColor(30, 30, 30, 255)
	ColPanel    = rl.NewColor(18, 18, 18, 255)
)

type App struct {
	cfg    *config.Config
	log    *slog.Logger
	exp    *experiment.Experiment
	glHost *compute.OpenGLHost
	screen r2.Vec
	height int32

	strategies []string
	strategy   int32
	gravity    float32
	drag       bool
	running    bool
	showGrid   bool
	err        error

	telemetry []float64
}

// Run opens a window sized to the configured screen and blocks until it is
// closed.
func Run(cfg *config.Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	screen := r2.Vec{X: cfg.Screen.Width, Y: cfg.Screen.Height}
	rl.InitWindow(int32(screen.X)+panelWidth, int32(screen.Y), "partsim")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(1 / cfg.Dt))
	rl.SetExitKey(0)

	app := newApp(cfg, log)

	// The GL context only exists once the window is open.
	if host, _ := compute.CanonicalHost(cfg.Host); host == "opengl" {
		app.glHost = compute.NewOpenGLHost()
		if err := app.glHost.Init(); err != nil {
			log.Warn("opengl unavailable, using cpu host", "err", err)
			app.glHost = nil
			app.cfg.Host = "cpu"
		}
	}
	defer func() {
		if app.glHost != nil {
			app.glHost.Cleanup()
		}
	}()

	if err := app.reset(); err != nil {
		return err
	}
	defer func() { app.exp.Close() }()

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			break
		}
		app.Update()
		app.Draw()
	}
	return app.err
}

func newApp(cfg *config.Config, log *slog.Logger) *App {
	screen := r2.Vec{X: cfg.Screen.Width, Y: cfg.Screen.Height}
	app := &App{
		cfg:       cfg.Clone(),
		log:       log,
		screen:    screen,
		height:    int32(screen.Y),
		gravity:   float32(cfg.Gravity),
		drag:      cfg.Drag.Enabled,
		running:   true,
		telemetry: make([]float64, 0, telemetryCap),
	}
	for _, s := range collision.Strategies() {
		app.strategies = append(app.strategies, s.String())
		if s.String() == cfg.Strategy {
			app.strategy = int32(len(app.strategies) - 1)
		}
	}
	return app
}

// reset rebuilds the experiment from the current panel settings. The
// running experiment is replaced only once the new one is set up.
func (a *App) reset() error {
	cfg := a.cfg.Clone()
	cfg.Strategy = a.strategies[a.strategy]
	cfg.Gravity = float64(a.gravity)
	cfg.Drag.Enabled = a.drag

	var host compute.Host
	if a.glHost != nil {
		host = a.glHost
	}
	exp := experiment.New(cfg, a.log)
	if err := exp.Setup(host); err != nil {
		exp.Close()
		return err
	}
	exp.Collector().Start()

	if a.exp != nil {
		a.exp.Close()
	}
	a.exp, a.cfg = exp, cfg
	a.err = nil
	a.running = true
	a.telemetry = a.telemetry[:0]
	return nil
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.running = !a.running && a.err == nil
	}
	if rl.IsKeyPressed(rl.KeyG) {
		a.showGrid = !a.showGrid
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.restart()
	}

	solver := a.exp.Solver()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		if mouse.X < float32(a.screen.X) {
			r := a.cfg.Spawn.RadiusMax
			if _, err := solver.Spawn(r2.Vec{X: float64(mouse.X), Y: a.screen.Y - float64(mouse.Y)}, r); err != nil {
				a.log.Warn("spawn rejected", "err", err)
			}
		}
	}

	for _, f := range solver.Forces() {
		if g, ok := f.(*physics.Gravity); ok {
			g.G = float64(a.gravity)
		}
	}

	if !a.running {
		return
	}
	if err := a.exp.Step(); err != nil {
		a.err = err
		a.running = false
		a.log.Error("simulation halted", "err", err)
		return
	}
	frames := a.exp.Collector().Frames()
	if n := len(frames); n > 0 {
		if len(a.telemetry) == telemetryCap {
			a.telemetry = a.telemetry[1:]
		}
		a.telemetry = append(a.telemetry, frames[n-1].Kinetic)
	}
}

func (a *App) restart() {
	if err := a.reset(); err != nil {
		a.err = err
		a.running = false
		a.log.Error("reset failed", "err", err)
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.showGrid {
		a.drawGrid()
	}
	for _, p := range a.exp.Solver().Particles() {
		center := rl.NewVector2(float32(p.Pos.X), float32(a.screen.Y-p.Pos.Y))
		rl.DrawCircleV(center, float32(p.Radius), ColParticle)
	}
	a.drawTelemetry()
	a.drawPanel()

	rl.EndDrawing()
}

func (a *App) drawGrid() {
	g := a.exp.Solver().Grid()
	w := float32(g.CellWidth)
	for i := 0; i <= g.CountX; i++ {
		x := int32(float32(i) * w)
		rl.DrawLine(x, 0, x, a.height, ColGrid)
	}
	for j := 0; j <= g.CountY; j++ {
		y := a.height - int32(float32(j)*w)
		rl.DrawLine(0, y, int32(a.screen.X), y, ColGrid)
	}
}

func (a *App) drawTelemetry() {
	if len(a.telemetry) < 2 {
		return
	}
	x0, y0 := float32(20), float32(a.height-80)
	width, height := float32(300), float32(60)

	lo, hi := a.telemetry[0], a.telemetry[0]
	for _, v := range a.telemetry {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	points := make([]rl.Vector2, len(a.telemetry))
	for i, v := range a.telemetry {
		px := x0 + float32(i)/float32(telemetryCap)*width
		py := y0 + height - float32((v-lo)/(hi-lo))*height
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColTextDim)
	rl.DrawText(fmt.Sprintf("KE %.3g", a.telemetry[len(a.telemetry)-1]), int32(x0+width+8), int32(y0+height-10), 10, ColText)
}

func (a *App) drawPanel() {
	x := float32(a.screen.X)
	rl.DrawRectangle(int32(x), 0, panelWidth, a.height, ColPanel)

	solver := a.exp.Solver()
	left := x + 16
	rl.DrawText("partsim", int32(left), 16, 20, ColParticle)
	rl.DrawText(a.cfg.Scene, int32(left)+100, 20, 10, ColText)

	status := "RUNNING"
	if !a.running {
		status = "PAUSED"
	}
	if a.err != nil {
		status = "HALTED"
	}
	lines := []string{
		status,
		fmt.Sprintf("frame      %d", solver.Frame()),
		fmt.Sprintf("particles  %d", solver.Len()),
		fmt.Sprintf("host       %s", solver.HostName()),
		fmt.Sprintf("fps        %d", rl.GetFPS()),
	}
	for i, line := range lines {
		rl.DrawText(line, int32(left), int32(56+18*i), 10, ColText)
	}

	raygui.GroupBox(rl.NewRectangle(left-6, 160, panelWidth-20, 180), "solver")
	strategy := raygui.ToggleGroup(rl.NewRectangle(left, 176, 72, 24), strings.Join(a.strategies, "\n"), a.strategy)
	a.gravity = raygui.SliderBar(rl.NewRectangle(left+52, 264, 120, 16), "gravity", fmt.Sprintf("%.0f", a.gravity), a.gravity, 0, maxGravity)
	drag := raygui.CheckBox(rl.NewRectangle(left, 292, 16, 16), "drag", a.drag)
	if strategy != a.strategy || drag != a.drag {
		a.strategy, a.drag = strategy, drag
		a.restart()
	}

	if raygui.Button(rl.NewRectangle(left, 360, 100, 28), "reset") {
		a.restart()
	}
	if raygui.Button(rl.NewRectangle(left+112, 360, 100, 28), "grid") {
		a.showGrid = !a.showGrid
	}

	if a.err != nil {
		rl.DrawText(a.err.Error(), int32(left), 404, 10, rl.Red)
	}
	rl.DrawText("[SPACE] PAUSE  [R] RESET  [G] GRID  [Q] QUIT", int32(left), a.height-24, 10, ColTextDim)
}
