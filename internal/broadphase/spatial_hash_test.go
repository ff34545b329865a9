package broadphase

import (
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func randomParticles(n int, screen r2.Vec, radius float64, seed int64) []dynamo.Particle {
	rng := rand.New(rand.NewSource(seed))
	ps := make([]dynamo.Particle, n)
	for i := range ps {
		pos := r2.Vec{X: rng.Float64() * screen.X, Y: rng.Float64() * screen.Y}
		ps[i] = dynamo.NewParticle(pos, radius)
	}
	return ps
}

func TestSpatialHashCoverage(t *testing.T) {
	screen := r2.Vec{X: 400, Y: 300}
	g, err := NewGrid(screen, 4)
	if err != nil {
		t.Fatal(err)
	}
	h := NewSpatialHash(g)

	for _, n := range []int{0, 1, 17, 1000} {
		ps := randomParticles(n, screen, 4, int64(n))
		h.Build(ps)

		total := 0
		for c := 0; c < g.Cells(); c++ {
			total += h.Count(c)
		}
		if total != n {
			t.Errorf("n=%d: bucket counts sum to %d", n, total)
		}
		if int(h.Offsets[g.Cells()]) != n {
			t.Errorf("n=%d: final offset %d", n, h.Offsets[g.Cells()])
		}
	}
}

func TestSpatialHashBucketCorrectness(t *testing.T) {
	screen := r2.Vec{X: 200, Y: 200}
	g, _ := NewGrid(screen, 5)
	h := NewSpatialHash(g)
	ps := randomParticles(500, screen, 5, 7)
	h.Build(ps)

	seen := make([]bool, len(ps))
	for c := 0; c < g.Cells(); c++ {
		for _, i := range h.Bucket(c) {
			if seen[i] {
				t.Fatalf("particle %d bucketed twice", i)
			}
			seen[i] = true

			cx := int(ps[i].Pos.X / g.CellWidth)
			cy := int(ps[i].Pos.Y / g.CellWidth)
			if want := cy*g.CountX + cx; c != want {
				t.Errorf("particle %d in bucket %d, want %d", i, c, want)
			}
			if h.CellOf(int(i)) != c {
				t.Errorf("CellOf(%d) = %d, want %d", i, h.CellOf(int(i)), c)
			}
		}
	}
	for i, ok := range seen {
		if !ok {
			t.Errorf("particle %d missing from every bucket", i)
		}
	}
}

func TestSpatialHashRebuildReusesBuffers(t *testing.T) {
	screen := r2.Vec{X: 100, Y: 100}
	g, _ := NewGrid(screen, 5)
	h := NewSpatialHash(g)

	h.Build(randomParticles(50, screen, 5, 1))
	grouped := &h.Grouped[0]

	ps := randomParticles(20, screen, 5, 2)
	h.Build(ps)

	if &h.Grouped[0] != grouped {
		t.Error("shrinking rebuild reallocated the grouped buffer")
	}
	if len(h.Grouped) != 20 {
		t.Errorf("expected 20 grouped entries, got %d", len(h.Grouped))
	}
	total := 0
	for c := 0; c < g.Cells(); c++ {
		total += h.Count(c)
	}
	if total != 20 {
		t.Errorf("stale counts after rebuild: %d", total)
	}
}

func TestSpatialHashNeighbors(t *testing.T) {
	g := Grid{CellWidth: 10, CountX: 5, CountY: 5}
	h := NewSpatialHash(g)
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 25, Y: 25}, 5), // centre cell (2,2)
		dynamo.NewParticle(r2.Vec{X: 15, Y: 15}, 5), // (1,1)
		dynamo.NewParticle(r2.Vec{X: 35, Y: 35}, 5), // (3,3)
		dynamo.NewParticle(r2.Vec{X: 45, Y: 25}, 5), // (4,2) out of range
		dynamo.NewParticle(r2.Vec{X: 5, Y: 5}, 5),   // (0,0)
	}
	h.Build(ps)

	var got []int
	h.Neighbors(0, func(j int32) { got = append(got, int(j)) })
	sort.Ints(got)
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("neighbors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbors = %v, want %v", got, want)
		}
	}

	got = got[:0]
	h.Neighbors(4, func(j int32) { got = append(got, int(j)) })
	sort.Ints(got)
	if len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Errorf("corner neighbors = %v, want [1 4]", got)
	}
}
