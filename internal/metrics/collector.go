package metrics

import (
	"time"

	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

// Frame is one row of run telemetry.
type Frame struct {
	Frame        int     `csv:"frame" json:"frame"`
	Time         float64 `csv:"time" json:"time"`
	Particles    int     `csv:"particles" json:"particles"`
	Kinetic      float64 `csv:"kinetic" json:"kinetic"`
	Potential    float64 `csv:"potential" json:"potential"`
	OverlapPairs int     `csv:"overlap_pairs" json:"overlap_pairs"`
	MaxOverlap   float64 `csv:"max_overlap" json:"max_overlap"`
	MeanOverlap  float64 `csv:"mean_overlap" json:"mean_overlap"`
	MaxBucket    int     `csv:"max_bucket" json:"max_bucket"`
	MeanBucket   float64 `csv:"mean_bucket" json:"mean_bucket"`
	Escaped      int     `csv:"escaped" json:"escaped"`
	FrameMillis  float64 `csv:"frame_ms" json:"frame_ms"`
}

// Columns lists the plottable Frame fields by csv name.
var Columns = []string{
	"particles", "kinetic", "potential", "overlap_pairs", "max_overlap",
	"mean_overlap", "max_bucket", "mean_bucket", "escaped", "frame_ms",
}

// Column returns the named field, false if unknown.
func (f *Frame) Column(name string) (float64, bool) {
	switch name {
	case "frame":
		return float64(f.Frame), true
	case "time":
		return f.Time, true
	case "particles":
		return float64(f.Particles), true
	case "kinetic":
		return f.Kinetic, true
	case "potential":
		return f.Potential, true
	case "energy":
		return f.Kinetic + f.Potential, true
	case "overlap_pairs":
		return float64(f.OverlapPairs), true
	case "max_overlap":
		return f.MaxOverlap, true
	case "mean_overlap":
		return f.MeanOverlap, true
	case "max_bucket":
		return float64(f.MaxBucket), true
	case "mean_bucket":
		return f.MeanBucket, true
	case "escaped":
		return float64(f.Escaped), true
	case "frame_ms":
		return f.FrameMillis, true
	}
	return 0, false
}

// Collector records a Frame per solver frame and feeds the run metrics.
// It satisfies sim.Observer.
type Collector struct {
	hash    *broadphase.SpatialHash
	box     *physics.Box
	subStep float64
	gravity float64
	every   int
	metrics []Metric
	frames  []Frame
	last    time.Time
	depths  []float64
	counts  []float64
	now     func() time.Time
}

// NewCollector samples every n-th frame (n <= 1 samples all).
func NewCollector(grid broadphase.Grid, box *physics.Box, subStep, gravity float64, every int) *Collector {
	if every < 1 {
		every = 1
	}
	return &Collector{
		hash:    broadphase.NewSpatialHash(grid),
		box:     box,
		subStep: subStep,
		gravity: gravity,
		every:   every,
		now:     time.Now,
	}
}

// DefaultMetrics are the run summaries stored with every run.
func DefaultMetrics() []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyGain(),
		NewOverlap(),
		NewContainment(1.0),
		NewPeakOccupancy(),
	}
}

func (c *Collector) AddMetric(m Metric) { c.metrics = append(c.metrics, m) }

// Start marks the wall-clock origin of the first frame.
func (c *Collector) Start() { c.last = c.now() }

func (c *Collector) OnFrame(frame int, t float64, ps []dynamo.Particle) {
	now := c.now()
	elapsed := 0.0
	if !c.last.IsZero() {
		elapsed = float64(now.Sub(c.last).Microseconds()) / 1000
	}
	c.last = now

	c.hash.Build(ps)
	s := &Sample{
		Frame:     frame,
		Time:      t,
		Particles: ps,
		SubStep:   c.subStep,
		Gravity:   c.gravity,
		Hash:      c.hash,
		Box:       c.box,
	}
	for _, m := range c.metrics {
		m.Observe(s)
	}

	if frame%c.every != 0 {
		return
	}
	c.frames = append(c.frames, c.measure(s, elapsed))
}

func (c *Collector) measure(s *Sample, elapsed float64) Frame {
	c.depths = Penetrations(s.Hash, s.Particles, c.depths)
	maxDepth, meanDepth := OverlapStats(c.depths)

	var occ Occupancy
	occ, c.counts = MeasureOccupancy(s.Hash, c.counts)

	return Frame{
		Frame:        s.Frame,
		Time:         s.Time,
		Particles:    len(s.Particles),
		Kinetic:      Kinetic(s.Particles, s.SubStep),
		Potential:    Potential(s.Particles, s.Gravity),
		OverlapPairs: len(c.depths),
		MaxOverlap:   maxDepth,
		MeanOverlap:  meanDepth,
		MaxBucket:    occ.Max,
		MeanBucket:   occ.Mean,
		Escaped:      Escaped(s.Box, s.Particles, 0),
		FrameMillis:  elapsed,
	}
}

func (c *Collector) Frames() []Frame { return c.frames }

// Summary returns each metric's value by name.
func (c *Collector) Summary() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (c *Collector) Reset() {
	c.frames = c.frames[:0]
	c.last = time.Time{}
	for _, m := range c.metrics {
		m.Reset()
	}
}
