package collision

import (
	"fmt"

	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/dynamo"
)

// Options configure resolver construction.
type Options struct {
	// Host runs the spatial-hash kernel. Nil with Sequential unset is an error.
	Host compute.Host
	// KernelSource overrides KernelName.
	KernelSource string
	// Sequential makes the spatial-hash strategy scan pairs on the caller.
	Sequential bool
}

// New builds the resolver for strategy over grid g.
func New(strategy Strategy, g broadphase.Grid, opts Options) (Resolver, error) {
	switch strategy {
	case BruteForce:
		return NewBruteForce(), nil
	case FixedGrid:
		return NewFixedGrid(g), nil
	case SpatialHash:
		if opts.Sequential {
			return NewSequentialSpatialHash(g), nil
		}
		return NewSpatialHash(g, opts.Host, opts.KernelSource)
	}
	return nil, fmt.Errorf("%w: %v", dynamo.ErrUnknownStrategy, strategy)
}
