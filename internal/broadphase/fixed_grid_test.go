package broadphase

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func members(f *FixedGrid, i int32) []int {
	var cells []int
	for c := 0; c < f.grid.Cells(); c++ {
		for _, j := range f.Cell(c) {
			if j == i {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func TestFixedGridMembership(t *testing.T) {
	g := Grid{CellWidth: 10, CountX: 4, CountY: 4}

	tests := []struct {
		name string
		pos  r2.Vec
		want []int
	}{
		{"inside one cell", r2.Vec{X: 15, Y: 15}, []int{5}},
		{"crosses east", r2.Vec{X: 17, Y: 15}, []int{5, 6}},
		{"crosses north", r2.Vec{X: 15, Y: 17}, []int{5, 9}},
		{"crosses north-east", r2.Vec{X: 17, Y: 17}, []int{5, 6, 9, 10}},
		{"just below boundary", r2.Vec{X: 15, Y: 15.0000001}, []int{5}},
		{"edge exactly on boundary", r2.Vec{X: 16, Y: 15}, []int{5, 6}},
		{"last column", r2.Vec{X: 37, Y: 15}, []int{7}},
		{"top row", r2.Vec{X: 15, Y: 37}, []int{13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFixedGrid(g)
			f.Assign([]dynamo.Particle{dynamo.NewParticle(tt.pos, 4)})
			got := members(f, 0)
			if len(got) != len(tt.want) {
				t.Fatalf("cells = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("cells = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFixedGridClear(t *testing.T) {
	g := Grid{CellWidth: 10, CountX: 4, CountY: 4}
	f := NewFixedGrid(g)
	f.Assign([]dynamo.Particle{dynamo.NewParticle(r2.Vec{X: 17, Y: 17}, 4)})

	f.ClearCell(5)
	if len(f.Cell(5)) != 0 {
		t.Error("ClearCell left members behind")
	}
	f.Clear()
	for c := 0; c < g.Cells(); c++ {
		if len(f.Cell(c)) != 0 {
			t.Errorf("cell %d not cleared", c)
		}
	}
}

func TestFixedGridOwnerIsShared(t *testing.T) {
	g := Grid{CellWidth: 10, CountX: 4, CountY: 4}
	f := NewFixedGrid(g)
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 17, Y: 17}, 4),
		dynamo.NewParticle(r2.Vec{X: 22, Y: 19}, 4),
	}
	f.Assign(ps)

	owner := f.Owner(0, 1)
	if owner != f.Owner(1, 0) {
		t.Fatal("owner is not symmetric")
	}
	in := func(i int32) bool {
		for _, j := range f.Cell(owner) {
			if j == i {
				return true
			}
		}
		return false
	}
	if !in(0) || !in(1) {
		t.Errorf("owner cell %d does not hold both particles", owner)
	}
}
