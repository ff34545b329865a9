package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Overlap tracks the worst penetration depth seen over a run.
type Overlap struct {
	name  string
	worst float64
	buf   []float64
}

func NewOverlap() *Overlap {
	return &Overlap{name: "max_overlap"}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(s *Sample) {
	o.buf = Penetrations(s.Hash, s.Particles, o.buf)
	if len(o.buf) > 0 {
		o.worst = math.Max(o.worst, floats.Max(o.buf))
	}
}

func (o *Overlap) Value() float64 { return o.worst }

func (o *Overlap) Reset() {
	o.worst = 0
	o.buf = o.buf[:0]
}

// OverlapStats summarises one frame's penetrations.
func OverlapStats(depths []float64) (maxDepth, mean float64) {
	if len(depths) == 0 {
		return 0, 0
	}
	return floats.Max(depths), stat.Mean(depths, nil)
}

// Containment is the fraction of frames with every particle inside the box.
type Containment struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewContainment(tolerance float64) *Containment {
	return &Containment{name: "containment", tolerance: tolerance}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(s *Sample) {
	c.samples++
	if Escaped(s.Box, s.Particles, c.tolerance) > 0 {
		c.violations++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
