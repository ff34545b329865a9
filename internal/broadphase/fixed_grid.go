package broadphase

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// FixedGrid stores each particle in every cell its bounding box touches.
//
// With cell width = 2*largest radius a box spans at most a 2x2 block, found
// from the cell of its minimum corner plus the north, east and north-east
// neighbours. A box edge exactly on a cell boundary counts as touching.
type FixedGrid struct {
	grid    Grid
	cells   [][]int32
	corners []r2.Vec
}

func NewFixedGrid(g Grid) *FixedGrid {
	cells := make([][]int32, g.Cells())
	for i := range cells {
		cells[i] = make([]int32, 0, 4)
	}
	return &FixedGrid{grid: g, cells: cells}
}

func (f *FixedGrid) Grid() Grid { return f.grid }

// Assign appends every particle to its cells. Call Clear (or ClearCell for
// each cell) before the next Assign.
func (f *FixedGrid) Assign(ps []dynamo.Particle) {
	if cap(f.corners) < len(ps) {
		f.corners = make([]r2.Vec, len(ps))
	}
	f.corners = f.corners[:len(ps)]

	cw := f.grid.CellWidth
	for i := range ps {
		p := &ps[i]
		corner := r2.Vec{X: p.Pos.X - p.Radius, Y: p.Pos.Y - p.Radius}
		f.corners[i] = corner

		cx, cy := f.grid.CellOf(corner)
		idx := int32(i)
		f.add(cx, cy, idx)

		north := cy+1 < f.grid.CountY && p.Pos.Y+p.Radius >= cw*float64(cy+1)
		east := cx+1 < f.grid.CountX && p.Pos.X+p.Radius >= cw*float64(cx+1)

		if north {
			f.add(cx, cy+1, idx)
			if east {
				f.add(cx+1, cy+1, idx)
			}
		}
		if east {
			f.add(cx+1, cy, idx)
		}
	}
}

func (f *FixedGrid) add(cx, cy int, i int32) {
	c := f.grid.Index(cx, cy)
	f.cells[c] = append(f.cells[c], i)
}

// Cell returns the members of cell idx.
func (f *FixedGrid) Cell(idx int) []int32 { return f.cells[idx] }

// ClearCell empties cell idx keeping its capacity.
func (f *FixedGrid) ClearCell(idx int) { f.cells[idx] = f.cells[idx][:0] }

func (f *FixedGrid) Clear() {
	for i := range f.cells {
		f.cells[i] = f.cells[i][:0]
	}
}

// Owner returns the single cell responsible for the pair (i, j): the cell of
// the minimum corner of the intersection of their boxes as assigned. When
// the boxes overlap both particles are members of that cell.
func (f *FixedGrid) Owner(i, j int32) int {
	a, b := f.corners[i], f.corners[j]
	return f.grid.Hash(r2.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)})
}
