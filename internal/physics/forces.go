package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

const (
	DefaultGravity       = 2000.0
	DefaultDragMagnitude = 500.0
)

// Force accumulates into each particle's force accumulator.
type Force interface {
	Name() string
	Apply(ps []dynamo.Particle)
}

// Gravity pulls every particle towards -y.
type Gravity struct {
	G float64
}

func NewGravity(g float64) *Gravity {
	return &Gravity{G: g}
}

func (g *Gravity) Name() string { return "gravity" }

func (g *Gravity) Apply(ps []dynamo.Particle) {
	f := r2.Vec{Y: -g.G}
	for i := range ps {
		ps[i].AddForce(f)
	}
}

// Drag opposes the direction of motion with a fixed magnitude.
type Drag struct {
	Magnitude float64
}

func NewDrag(magnitude float64) *Drag {
	return &Drag{Magnitude: magnitude}
}

func (d *Drag) Name() string { return "drag" }

// Apply skips particles at rest, where the direction of motion is undefined.
func (d *Drag) Apply(ps []dynamo.Particle) {
	for i := range ps {
		v := ps[i].Velocity()
		speed := r2.Norm(v)
		if speed == 0 {
			continue
		}
		ps[i].AddForce(r2.Scale(-d.Magnitude/speed, v))
	}
}
