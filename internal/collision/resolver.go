package collision

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

const (
	// Response is the fraction of the overlap removed per resolution.
	Response = 0.75
	// Epsilon is the centre distance below which a pair has no usable normal.
	Epsilon = 1e-6
)

// Strategy selects how candidate pairs are enumerated.
type Strategy int

const (
	BruteForce Strategy = iota
	FixedGrid
	SpatialHash
)

var strategyNames = map[Strategy]string{
	BruteForce:  "brute_force",
	FixedGrid:   "fixed_grid",
	SpatialHash: "spatial_hash",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts the snake_case names and a few aliases.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "brute_force", "bruteforce", "brute":
		return BruteForce, nil
	case "fixed_grid", "fixedgrid", "grid":
		return FixedGrid, nil
	case "spatial_hash", "spatialhash", "hash", "":
		return SpatialHash, nil
	}
	return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownStrategy, name)
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{BruteForce, FixedGrid, SpatialHash}
}

// Resolver separates overlapping particles in place.
type Resolver interface {
	Strategy() Strategy
	Resolve(ps []dynamo.Particle) error
}

// Collide resolves the pair (i, j) if their circles overlap. Coincident
// centres have no normal and are left untouched.
func Collide(ps []dynamo.Particle, i, j int) bool {
	if i == j {
		return false
	}
	p1, p2 := &ps[i], &ps[j]

	axis := r2.Sub(p1.Pos, p2.Pos)
	d := r2.Norm(axis)
	sumR := p1.Radius + p2.Radius
	if d >= sumR || d < Epsilon {
		return false
	}

	n := r2.Scale(1/d, axis)
	delta := Response * (sumR - d)
	p1.Pos = r2.Add(p1.Pos, r2.Scale(p2.Radius/sumR*delta, n))
	p2.Pos = r2.Sub(p2.Pos, r2.Scale(p1.Radius/sumR*delta, n))
	return true
}

// Overlap returns the penetration depth of the pair, zero when separated.
func Overlap(p1, p2 *dynamo.Particle) float64 {
	d := r2.Norm(r2.Sub(p1.Pos, p2.Pos))
	return math.Max(0, p1.Radius+p2.Radius-d)
}
