package collision

import (
	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/dynamo"
)

// FixedGridResolver tests pairs that share a cell of a multi-membership grid.
//
// A pair sharing several cells is resolved only in its owner cell. Each cell
// is cleared right after it is processed.
type FixedGridResolver struct {
	grid *broadphase.FixedGrid
}

func NewFixedGrid(g broadphase.Grid) *FixedGridResolver {
	return &FixedGridResolver{grid: broadphase.NewFixedGrid(g)}
}

func (f *FixedGridResolver) Strategy() Strategy { return FixedGrid }

func (f *FixedGridResolver) Resolve(ps []dynamo.Particle) error {
	f.grid.Assign(ps)

	cells := f.grid.Grid().Cells()
	for c := 0; c < cells; c++ {
		members := f.grid.Cell(c)
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				i, j := members[a], members[b]
				if f.grid.Owner(i, j) != c {
					continue
				}
				Collide(ps, int(i), int(j))
			}
		}
		f.grid.ClearCell(c)
	}
	return nil
}
