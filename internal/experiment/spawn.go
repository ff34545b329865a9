package experiment

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/sim"
)

// Spawn describes one particle to add. Velocity is in units per second.
type Spawn struct {
	Pos      r2.Vec
	Velocity r2.Vec
	Radius   float64
}

// Pattern places the i-th particle of a scene.
type Pattern func(rng *rand.Rand, screen r2.Vec, cfg config.SpawnConfig, i int) Spawn

func radius(rng *rand.Rand, cfg config.SpawnConfig) float64 {
	return cfg.RadiusMin + rng.Float64()*(cfg.RadiusMax-cfg.RadiusMin)
}

// Rain drops particles in from the top edge with a small sideways scatter.
func Rain(rng *rand.Rand, screen r2.Vec, cfg config.SpawnConfig, i int) Spawn {
	r := radius(rng, cfg)
	return Spawn{
		Pos:      r2.Vec{X: r + rng.Float64()*(screen.X-2*r), Y: screen.Y - r - rng.Float64()*0.1*screen.Y},
		Velocity: r2.Vec{X: (rng.Float64() - 0.5) * 200, Y: -200},
		Radius:   r,
	}
}

// Lattice stacks particles on a square lattice centred horizontally.
func Lattice(rng *rand.Rand, screen r2.Vec, cfg config.SpawnConfig, i int) Spawn {
	spacing := 2*cfg.RadiusMax + 1
	cols := max(1, int(0.8*screen.X/spacing))
	x0 := (screen.X - float64(cols-1)*spacing) / 2
	r := radius(rng, cfg)
	y := math.Min(cfg.RadiusMax+float64(i/cols)*spacing, screen.Y-r)
	return Spawn{
		Pos:    r2.Vec{X: x0 + float64(i%cols)*spacing, Y: y},
		Radius: r,
	}
}

// Mixed scatters particles uniformly over the screen.
func Mixed(rng *rand.Rand, screen r2.Vec, cfg config.SpawnConfig, i int) Spawn {
	r := radius(rng, cfg)
	return Spawn{
		Pos:    r2.Vec{X: r + rng.Float64()*(screen.X-2*r), Y: r + rng.Float64()*(screen.Y-2*r)},
		Radius: r,
	}
}

// Column stacks particles in a single slightly jittered tower.
func Column(rng *rand.Rand, screen r2.Vec, cfg config.SpawnConfig, i int) Spawn {
	r := radius(rng, cfg)
	y := math.Min(cfg.RadiusMax+float64(i)*2*cfg.RadiusMax, screen.Y-r)
	return Spawn{
		Pos:    r2.Vec{X: screen.X/2 + (rng.Float64()-0.5)*0.5, Y: y},
		Radius: r,
	}
}

// Spawner releases a scene's particles into a solver, all at once or a few
// per frame.
type Spawner struct {
	pattern Pattern
	cfg     config.SpawnConfig
	screen  r2.Vec
	rng     *rand.Rand
	emitted int
}

func NewSpawner(pattern Pattern, screen r2.Vec, cfg config.SpawnConfig) *Spawner {
	return &Spawner{
		pattern: pattern,
		cfg:     cfg,
		screen:  screen,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *Spawner) Emitted() int { return s.emitted }
func (s *Spawner) Done() bool   { return s.emitted >= s.cfg.Count }

// Emit adds the next batch to solver and returns how many were added. dt is
// the frame duration, used to express spawn velocities per sub-step.
func (s *Spawner) Emit(solver *sim.Solver, dt float64) (int, error) {
	batch := s.cfg.Count - s.emitted
	if s.cfg.PerFrame > 0 {
		batch = min(batch, s.cfg.PerFrame)
	}

	h := dt / float64(solver.SubSteps())
	for k := 0; k < batch; k++ {
		sp := s.pattern(s.rng, s.screen, s.cfg, s.emitted)
		handle, err := solver.Spawn(sp.Pos, sp.Radius)
		if err != nil {
			return k, fmt.Errorf("spawning particle %d: %w", s.emitted, err)
		}
		if sp.Velocity != (r2.Vec{}) {
			p, _ := solver.Particle(handle)
			p.SetVelocity(r2.Scale(h, sp.Velocity))
		}
		s.emitted++
	}
	return batch, nil
}
