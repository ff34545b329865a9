package metrics

import "math"

// Energy is the mean total mechanical energy per frame.
type Energy struct {
	name    string
	samples int
	total   float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s *Sample) {
	e.total += Kinetic(s.Particles, s.SubStep) + Potential(s.Particles, s.Gravity)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyGain is the largest frame-to-frame increase in total energy relative
// to the first frame. A dissipative run stays near zero.
type EnergyGain struct {
	name     string
	initial  float64
	previous float64
	maxGain  float64
	samples  int
}

func NewEnergyGain() *EnergyGain {
	return &EnergyGain{name: "energy_gain"}
}

func (e *EnergyGain) Name() string { return e.name }

func (e *EnergyGain) Observe(s *Sample) {
	energy := Kinetic(s.Particles, s.SubStep) + Potential(s.Particles, s.Gravity)
	if e.samples == 0 {
		e.initial = energy
	} else if e.initial != 0 {
		gain := (energy - e.previous) / math.Abs(e.initial)
		e.maxGain = math.Max(e.maxGain, gain)
	}
	e.previous = energy
	e.samples++
}

func (e *EnergyGain) Value() float64 { return e.maxGain }

func (e *EnergyGain) Reset() {
	e.initial = 0
	e.previous = 0
	e.maxGain = 0
	e.samples = 0
}
