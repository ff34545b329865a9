package metrics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

// Metric summarises a run one frame at a time.
type Metric interface {
	Name() string
	Observe(s *Sample)
	Value() float64
	Reset()
}

// Sample is the per-frame state shared by all metrics.
type Sample struct {
	Frame     int
	Time      float64
	Particles []dynamo.Particle
	// SubStep is the integration step used to turn displacements into velocities.
	SubStep float64
	Gravity float64
	Hash    *broadphase.SpatialHash
	Box     *physics.Box
}

// Kinetic sums 0.5*|v|^2 with unit mass and v = displacement/h.
func Kinetic(ps []dynamo.Particle, h float64) float64 {
	if h <= 0 {
		return 0
	}
	e := 0.0
	for i := range ps {
		e += 0.5 * r2.Norm2(ps[i].Velocity()) / (h * h)
	}
	return e
}

// Potential sums g*y with unit mass.
func Potential(ps []dynamo.Particle, g float64) float64 {
	e := 0.0
	for i := range ps {
		e += g * ps[i].Pos.Y
	}
	return e
}

// Penetrations returns the depth of every overlapping pair found through the
// 3x3 neighbourhood of a built hash. Each pair is reported once.
func Penetrations(hash *broadphase.SpatialHash, ps []dynamo.Particle, dst []float64) []float64 {
	dst = dst[:0]
	for i := range ps {
		hash.Neighbors(i, func(j int32) {
			if int(j) <= i {
				return
			}
			p, q := &ps[i], &ps[j]
			d := r2.Norm(r2.Sub(p.Pos, q.Pos))
			if depth := p.Radius + q.Radius - d; depth > 0 {
				dst = append(dst, depth)
			}
		})
	}
	return dst
}

// Escaped counts particles whose circle lies partly outside the box.
func Escaped(box *physics.Box, ps []dynamo.Particle, tolerance float64) int {
	left, right, bottom, top := box.Bounds()
	n := 0
	for i := range ps {
		p := &ps[i]
		if p.Pos.X-p.Radius < left-tolerance || p.Pos.X+p.Radius > right+tolerance ||
			p.Pos.Y-p.Radius < bottom-tolerance || p.Pos.Y+p.Radius > top+tolerance {
			n++
		}
	}
	return n
}
