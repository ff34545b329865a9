package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/sim"
)

// Result is the outcome of a completed or interrupted run.
type Result struct {
	Frames    []metrics.Frame
	Summary   map[string]float64
	FramesRun int
	Particles int
	Strategy  string
	Host      string
	Elapsed   time.Duration
}

// Experiment wires a configuration into a solver, a spawner and a metrics
// collector.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	log       *slog.Logger
	solver    *sim.Solver
	spawner   *Spawner
	collector *metrics.Collector
	host      compute.Host
	ownsHost  bool
	every     int
}

func New(cfg *config.Config, log *slog.Logger) *Experiment {
	if log == nil {
		log = slog.Default()
	}
	return &Experiment{cfg: cfg, registry: NewRegistry(), log: log, every: 1}
}

// SampleEvery records only every n-th frame in the result.
func (e *Experiment) SampleEvery(n int) { e.every = n }

// Setup builds the solver. host may be nil, in which case one is created from
// the configuration when the strategy needs it.
func (e *Experiment) Setup(host compute.Host) error {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	strategy, err := e.registry.GetStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	pattern, err := e.registry.GetPattern(cfg.Spawn.Pattern)
	if err != nil {
		return err
	}

	needsHost := strategy == collision.SpatialHash && !cfg.Sequential
	if needsHost && host == nil {
		host, err = e.registry.GetHost(cfg.Host, cfg.Workers)
		if err != nil {
			return err
		}
		e.ownsHost = true
	}
	e.host = host

	screen := r2.Vec{X: cfg.Screen.Width, Y: cfg.Screen.Height}
	simCfg := sim.DefaultConfig(screen, cfg.LargestRadius)
	simCfg.SubSteps = cfg.SubSteps
	simCfg.Strategy = strategy
	simCfg.Host = host
	simCfg.KernelSource = cfg.KernelSource
	simCfg.FallbackToCPU = cfg.FallbackToCPU
	simCfg.Sequential = cfg.Sequential
	simCfg.Gravity = cfg.Gravity
	simCfg.Drag = cfg.Drag.Enabled
	simCfg.DragMagnitude = cfg.Drag.Magnitude
	simCfg.Restitution = cfg.Restitution
	simCfg.Logger = e.log

	solver, err := sim.New(simCfg)
	if err != nil {
		e.Close()
		return err
	}
	e.solver = solver

	e.collector = metrics.NewCollector(solver.Grid(), solver.Box(), cfg.Dt/float64(cfg.SubSteps), cfg.Gravity, e.every)
	for _, m := range metrics.DefaultMetrics() {
		e.collector.AddMetric(m)
	}
	solver.AddObserver(e.collector)

	e.spawner = NewSpawner(pattern, screen, cfg.Spawn)
	return nil
}

// Step releases the next spawn batch and advances one frame.
func (e *Experiment) Step() error {
	if e.solver == nil {
		return fmt.Errorf("experiment not setup")
	}
	if !e.spawner.Done() {
		if _, err := e.spawner.Emit(e.solver, e.cfg.Dt); err != nil {
			return err
		}
	}
	return e.solver.Update(e.cfg.Dt)
}

// Run steps through the configured number of frames. On cancellation or a
// halted frame the partial result is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.solver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.log.Info("run started",
		"scene", e.cfg.Scene,
		"frames", e.cfg.Frames,
		"particles", e.cfg.Spawn.Count,
		"pattern", e.cfg.Spawn.Pattern)

	start := time.Now()
	e.collector.Start()

	var runErr error
	for i := 0; i < e.cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
			runErr = e.Step()
		}
		if runErr != nil {
			break
		}
	}

	result := e.result(time.Since(start))
	if runErr != nil {
		e.log.Warn("run stopped", "frame", result.FramesRun, "err", runErr)
		return result, runErr
	}
	e.log.Info("run finished",
		"frames", result.FramesRun,
		"particles", result.Particles,
		"elapsed", result.Elapsed)
	return result, nil
}

func (e *Experiment) result(elapsed time.Duration) *Result {
	return &Result{
		Frames:    e.collector.Frames(),
		Summary:   e.collector.Summary(),
		FramesRun: e.solver.Frame(),
		Particles: e.solver.Len(),
		Strategy:  e.solver.Resolver().Strategy().String(),
		Host:      e.solver.HostName(),
		Elapsed:   elapsed,
	}
}

func (e *Experiment) Config() *config.Config        { return e.cfg }
func (e *Experiment) Solver() *sim.Solver           { return e.solver }
func (e *Experiment) Spawner() *Spawner             { return e.spawner }
func (e *Experiment) Collector() *metrics.Collector { return e.collector }

// Close releases the solver and any host the experiment created.
func (e *Experiment) Close() {
	if e.solver != nil {
		e.solver.Close()
	}
	if e.ownsHost && e.host != nil {
		e.host.Cleanup()
	}
	e.host = nil
	e.ownsHost = false
}
