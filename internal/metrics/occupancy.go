package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/partsim/internal/broadphase"
)

// Occupancy describes how particles spread over the hash buckets.
type Occupancy struct {
	Max      int
	Occupied int
	Mean     float64
	StdDev   float64
}

// MeasureOccupancy reads bucket sizes from a built hash. Mean and StdDev are
// over occupied cells only.
func MeasureOccupancy(hash *broadphase.SpatialHash, counts []float64) (Occupancy, []float64) {
	counts = counts[:0]
	var occ Occupancy
	cells := hash.Grid().Cells()
	for c := 0; c < cells; c++ {
		n := hash.Count(c)
		if n == 0 {
			continue
		}
		occ.Occupied++
		occ.Max = max(occ.Max, n)
		counts = append(counts, float64(n))
	}
	if len(counts) > 0 {
		occ.Mean, occ.StdDev = stat.MeanStdDev(counts, nil)
	}
	return occ, counts
}

// PeakOccupancy is the largest bucket seen over a run.
type PeakOccupancy struct {
	name   string
	peak   int
	counts []float64
}

func NewPeakOccupancy() *PeakOccupancy {
	return &PeakOccupancy{name: "peak_occupancy"}
}

func (p *PeakOccupancy) Name() string { return p.name }

func (p *PeakOccupancy) Observe(s *Sample) {
	var occ Occupancy
	occ, p.counts = MeasureOccupancy(s.Hash, p.counts)
	p.peak = max(p.peak, occ.Max)
}

func (p *PeakOccupancy) Value() float64 { return float64(p.peak) }

func (p *PeakOccupancy) Reset() { p.peak = 0 }
