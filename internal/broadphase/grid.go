package broadphase

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Grid is the uniform cell layout covering [0, screen].
type Grid struct {
	CellWidth float64
	CountX    int
	CountY    int
}

// NewGrid sizes cells to the bounding square of the largest particle.
func NewGrid(screen r2.Vec, largestRadius float64) (Grid, error) {
	if !(largestRadius > 0) || math.IsInf(largestRadius, 0) {
		return Grid{}, fmt.Errorf("%w: largest radius %v", dynamo.ErrInvalidRadius, largestRadius)
	}
	if !(screen.X > 0) || !(screen.Y > 0) || math.IsInf(screen.X, 0) || math.IsInf(screen.Y, 0) {
		return Grid{}, fmt.Errorf("%w: %vx%v", dynamo.ErrInvalidScreen, screen.X, screen.Y)
	}

	cw := 2 * largestRadius
	return Grid{
		CellWidth: cw,
		CountX:    int(math.Ceil(screen.X / cw)),
		CountY:    int(math.Ceil(screen.Y / cw)),
	}, nil
}

// Cells is the total number of cells.
func (g Grid) Cells() int { return g.CountX * g.CountY }

// Coord maps a coordinate to its cell column or row, clamped into the grid.
func (g Grid) Coord(v float64, count int) int {
	f := math.Floor(v / g.CellWidth)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f >= float64(count):
		return count - 1
	}
	return int(f)
}

// CellOf returns the cell containing pos.
func (g Grid) CellOf(pos r2.Vec) (int, int) {
	return g.Coord(pos.X, g.CountX), g.Coord(pos.Y, g.CountY)
}

// Index linearises a cell as cy*CountX + cx.
func (g Grid) Index(cx, cy int) int { return cy*g.CountX + cx }

// Hash returns the linear index of the cell containing pos.
func (g Grid) Hash(pos r2.Vec) int {
	cx, cy := g.CellOf(pos)
	return g.Index(cx, cy)
}

// Covers reports whether a particle of the given radius fits the grid's
// neighbour guarantee.
func (g Grid) Covers(radius float64) bool {
	return 2*radius <= g.CellWidth
}
