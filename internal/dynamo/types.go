package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a circle integrated with position Verlet.
type Particle struct {
	Pos     r2.Vec
	PrevPos r2.Vec
	// Force is mass-normalised: it is applied directly as acceleration.
	Force  r2.Vec
	Radius float64
}

// NewParticle returns a particle at rest at pos.
func NewParticle(pos r2.Vec, radius float64) Particle {
	return Particle{Pos: pos, PrevPos: pos, Radius: radius}
}

// Velocity returns the displacement over the last step.
func (p *Particle) Velocity() r2.Vec {
	return r2.Sub(p.Pos, p.PrevPos)
}

// SetVelocity rewrites the previous position so the next step carries v.
func (p *Particle) SetVelocity(v r2.Vec) {
	p.PrevPos = r2.Sub(p.Pos, v)
}

// AddForce accumulates f until the next integration step.
func (p *Particle) AddForce(f r2.Vec) {
	p.Force = r2.Add(p.Force, f)
}

// IsValid reports whether every component is finite.
func (p *Particle) IsValid() bool {
	for _, v := range [...]float64{p.Pos.X, p.Pos.Y, p.PrevPos.X, p.PrevPos.Y, p.Force.X, p.Force.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Handle addresses a particle for the lifetime of its Store.
//
// Particles are never removed, so the handle is the slot index. If removal is
// ever introduced this must become an indirection table.
type Handle int

// Store is an append-only particle container.
type Store struct {
	particles []Particle
}

func NewStore(capacity int) *Store {
	return &Store{particles: make([]Particle, 0, capacity)}
}

// Spawn appends a particle at rest and returns its handle.
func (s *Store) Spawn(pos r2.Vec, radius float64) Handle {
	s.particles = append(s.particles, NewParticle(pos, radius))
	return Handle(len(s.particles) - 1)
}

// Get returns a pointer valid until the next Spawn.
func (s *Store) Get(h Handle) (*Particle, error) {
	if h < 0 || int(h) >= len(s.particles) {
		return nil, fmt.Errorf("%w: %d (count %d)", ErrInvalidHandle, h, len(s.particles))
	}
	return &s.particles[h], nil
}

func (s *Store) Len() int { return len(s.particles) }

// Particles exposes the backing slice for in-place passes.
func (s *Store) Particles() []Particle { return s.particles }

// MaxRadius returns the largest radius currently stored.
func (s *Store) MaxRadius() float64 {
	m := 0.0
	for i := range s.particles {
		m = math.Max(m, s.particles[i].Radius)
	}
	return m
}
