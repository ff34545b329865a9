package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/integrators"
	"github.com/san-kum/partsim/internal/physics"
)

// Solver owns the particles and advances them frame by frame.
//
// Each Update splits dt into SubSteps equal steps of
// forces -> integrate -> constrain -> resolve collisions. A Solver is not
// safe for concurrent use.
type Solver struct {
	store      *dynamo.Store
	grid       broadphase.Grid
	largest    float64
	subSteps   int
	forces     []physics.Force
	integrator Integrator
	box        *physics.Box
	resolver   collision.Resolver
	host       compute.Host
	ownsHost   bool
	observers  []Observer
	log        *slog.Logger

	// particles as they were when the current frame started
	rollback []dynamo.Particle

	frame int
	time  float64
}

func New(cfg Config) (*Solver, error) {
	grid, err := broadphase.NewGrid(cfg.Screen, cfg.LargestRadius)
	if err != nil {
		return nil, err
	}
	if cfg.SubSteps <= 0 {
		return nil, fmt.Errorf("%w: %d sub-steps", dynamo.ErrInvalidTimestep, cfg.SubSteps)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	box := physics.ScreenBox(cfg.Screen)
	box.Restitution = cfg.Restitution

	s := &Solver{
		store:      dynamo.NewStore(256),
		grid:       grid,
		largest:    cfg.LargestRadius,
		subSteps:   cfg.SubSteps,
		forces:     []physics.Force{physics.NewGravity(cfg.Gravity)},
		integrator: integrators.NewVerlet(),
		box:        box,
		log:        log,
	}
	if cfg.Drag {
		s.forces = append(s.forces, physics.NewDrag(cfg.DragMagnitude))
	}

	if err := s.initResolver(cfg); err != nil {
		s.Close()
		return nil, err
	}

	log.Info("solver ready",
		"strategy", s.resolver.Strategy(),
		"host", s.HostName(),
		"cell_width", grid.CellWidth,
		"cells_x", grid.CountX,
		"cells_y", grid.CountY,
		"sub_steps", s.subSteps)
	return s, nil
}

func (s *Solver) initResolver(cfg Config) error {
	if cfg.Resolver != nil {
		s.resolver = cfg.Resolver
		return nil
	}

	opts := collision.Options{
		Host:         cfg.Host,
		KernelSource: cfg.KernelSource,
		Sequential:   cfg.Sequential,
	}
	needsHost := cfg.Strategy == collision.SpatialHash && !cfg.Sequential
	if needsHost && opts.Host == nil {
		opts.Host = compute.NewCPUHost(0)
		s.ownsHost = true
	}

	r, err := collision.New(cfg.Strategy, s.grid, opts)
	if err != nil && needsHost && cfg.FallbackToCPU && !s.ownsHost && errors.Is(err, dynamo.ErrKernelLoad) {
		s.log.Warn("kernel load failed, falling back to cpu host",
			"host", opts.Host.Name(), "err", err)
		opts.Host = compute.NewCPUHost(0)
		s.ownsHost = true
		r, err = collision.New(cfg.Strategy, s.grid, opts)
	}
	if err != nil {
		if s.ownsHost {
			opts.Host.Cleanup()
			s.ownsHost = false
		}
		return err
	}

	s.resolver = r
	if needsHost {
		s.host = opts.Host
	}
	return nil
}

// Spawn adds a particle at rest. The radius must not exceed the largest
// radius the grid was built for.
func (s *Solver) Spawn(pos r2.Vec, radius float64) (dynamo.Handle, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return 0, fmt.Errorf("%w: %v", dynamo.ErrInvalidRadius, radius)
	}
	if radius > s.largest {
		return 0, fmt.Errorf("%w: %v > %v", dynamo.ErrRadiusTooLarge, radius, s.largest)
	}
	return s.store.Spawn(pos, radius), nil
}

// Particle returns the particle behind h. The pointer is invalidated by the
// next Spawn; the handle is not.
func (s *Solver) Particle(h dynamo.Handle) (*dynamo.Particle, error) {
	return s.store.Get(h)
}

func (s *Solver) Len() int { return s.store.Len() }

// Particles exposes the live particle slice.
func (s *Solver) Particles() []dynamo.Particle { return s.store.Particles() }

func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Forces returns the applied forces; callers may tune them between frames.
func (s *Solver) Forces() []physics.Force { return s.forces }

func (s *Solver) Grid() broadphase.Grid        { return s.grid }
func (s *Solver) Box() *physics.Box            { return s.box }
func (s *Solver) Resolver() collision.Resolver { return s.resolver }
func (s *Solver) SubSteps() int                { return s.subSteps }
func (s *Solver) Frame() int                   { return s.frame }
func (s *Solver) Time() float64                { return s.time }

// Update advances the simulation by dt. A failed collision pass halts the
// frame and is returned as a *dynamo.FrameError; the particles are restored
// to their state before the frame and neither the frame counter nor the
// time advance.
func (s *Solver) Update(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidTimestep, dt)
	}

	ps := s.store.Particles()
	s.rollback = append(s.rollback[:0], ps...)
	h := dt / float64(s.subSteps)
	for k := 0; k < s.subSteps; k++ {
		for _, f := range s.forces {
			f.Apply(ps)
		}
		s.integrator.Step(ps, h)
		s.box.Constrain(ps)
		if err := s.resolver.Resolve(ps); err != nil {
			copy(ps, s.rollback)
			s.log.Error("frame halted", "frame", s.frame, "sub_step", k, "err", err)
			return &dynamo.FrameError{Frame: s.frame, SubStep: k, Wrapped: err}
		}
	}

	s.frame++
	s.time += dt
	for _, o := range s.observers {
		o.OnFrame(s.frame, s.time, ps)
	}
	return nil
}

// Run calls Update frames times, stopping early when ctx is done.
func (s *Solver) Run(ctx context.Context, frames int, dt float64) error {
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

// HostName names the kernel host in use, "none" for CPU-only strategies.
func (s *Solver) HostName() string {
	if s.host == nil {
		return "none"
	}
	return s.host.Name()
}

// Close releases the kernel host if the solver created it.
func (s *Solver) Close() {
	if s.ownsHost && s.host != nil {
		s.host.Cleanup()
	}
	s.host = nil
	s.ownsHost = false
}
