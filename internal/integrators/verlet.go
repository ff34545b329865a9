package integrators

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Verlet advances particles with position Verlet.
//
// The force accumulator is read as acceleration and cleared after use, so
// forces must be re-applied before every step.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

// Step moves every particle by its last displacement plus a*dt^2.
func (v *Verlet) Step(ps []dynamo.Particle, dt float64) {
	dt2 := dt * dt
	for i := range ps {
		p := &ps[i]
		displacement := r2.Sub(p.Pos, p.PrevPos)
		next := r2.Add(r2.Add(p.Pos, displacement), r2.Scale(dt2, p.Force))
		p.PrevPos = p.Pos
		p.Pos = next
		p.Force = r2.Vec{}
	}
}
