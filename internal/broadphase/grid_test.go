package broadphase

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name   string
		screen r2.Vec
		radius float64
		cw     float64
		cx, cy int
	}{
		{"exact fit", r2.Vec{X: 800, Y: 600}, 5, 10, 80, 60},
		{"rounds up", r2.Vec{X: 805, Y: 601}, 5, 10, 81, 61},
		{"single cell", r2.Vec{X: 10, Y: 10}, 20, 40, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.screen, tt.radius)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.CellWidth != tt.cw || g.CountX != tt.cx || g.CountY != tt.cy {
				t.Errorf("got %+v", g)
			}
		})
	}
}

func TestNewGridRejectsDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		screen r2.Vec
		radius float64
		want   error
	}{
		{"zero radius", r2.Vec{X: 100, Y: 100}, 0, dynamo.ErrInvalidRadius},
		{"negative radius", r2.Vec{X: 100, Y: 100}, -1, dynamo.ErrInvalidRadius},
		{"NaN radius", r2.Vec{X: 100, Y: 100}, math.NaN(), dynamo.ErrInvalidRadius},
		{"zero width", r2.Vec{X: 0, Y: 100}, 5, dynamo.ErrInvalidScreen},
		{"negative height", r2.Vec{X: 100, Y: -5}, 5, dynamo.ErrInvalidScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGrid(tt.screen, tt.radius); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGridCoordClamps(t *testing.T) {
	g := Grid{CellWidth: 10, CountX: 8, CountY: 6}

	tests := []struct {
		v    float64
		want int
	}{
		{-3, 0},
		{0, 0},
		{9.999, 0},
		{10, 1},
		{79.9, 7},
		{80, 7},
		{1e9, 7},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := g.Coord(tt.v, g.CountX); got != tt.want {
			t.Errorf("Coord(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestGridHashLinearises(t *testing.T) {
	g := Grid{CellWidth: 10, CountX: 8, CountY: 6}
	if h := g.Hash(r2.Vec{X: 35, Y: 21}); h != 2*8+3 {
		t.Errorf("expected 19, got %d", h)
	}
}
