package broadphase

import "github.com/san-kum/partsim/internal/dynamo"

// SpatialHash assigns every particle to the cell holding its centre.
//
// Bucket h occupies Grouped[Offsets[h]:Offsets[h+1]]. Order within a bucket
// is unspecified.
type SpatialHash struct {
	grid    Grid
	Offsets []int32
	Grouped []int32
	cells   []int32
}

func NewSpatialHash(g Grid) *SpatialHash {
	return &SpatialHash{
		grid:    g,
		Offsets: make([]int32, g.Cells()+1),
	}
}

func (h *SpatialHash) Grid() Grid { return h.grid }

// Build counting-sorts particle indices into buckets.
func (h *SpatialHash) Build(ps []dynamo.Particle) {
	n := len(ps)
	h.resize(n)

	for i := range h.Offsets {
		h.Offsets[i] = 0
	}

	for i := range ps {
		c := int32(h.grid.Hash(ps[i].Pos))
		h.cells[i] = c
		h.Offsets[c]++
	}

	for i := 1; i < len(h.Offsets); i++ {
		h.Offsets[i] += h.Offsets[i-1]
	}

	for i := 0; i < n; i++ {
		c := h.cells[i]
		h.Offsets[c]--
		h.Grouped[h.Offsets[c]] = int32(i)
	}
}

func (h *SpatialHash) resize(n int) {
	if cap(h.Grouped) < n {
		h.Grouped = make([]int32, n)
		h.cells = make([]int32, n)
		return
	}
	h.Grouped = h.Grouped[:n]
	h.cells = h.cells[:n]
}

// Bucket returns the particle indices stored in cell idx.
func (h *SpatialHash) Bucket(idx int) []int32 {
	return h.Grouped[h.Offsets[idx]:h.Offsets[idx+1]]
}

// Count returns the occupancy of cell idx.
func (h *SpatialHash) Count(idx int) int {
	return int(h.Offsets[idx+1] - h.Offsets[idx])
}

// CellOf returns the cell particle i was bucketed into by the last Build.
func (h *SpatialHash) CellOf(i int) int { return int(h.cells[i]) }

// Neighbors calls fn for every particle index in the 3x3 block of cells
// around the cell of particle i, including i itself.
func (h *SpatialHash) Neighbors(i int, fn func(j int32)) {
	cell := int(h.cells[i])
	cx, cy := cell%h.grid.CountX, cell/h.grid.CountX

	for y := cy - 1; y <= cy+1; y++ {
		if y < 0 || y >= h.grid.CountY {
			continue
		}
		for x := cx - 1; x <= cx+1; x++ {
			if x < 0 || x >= h.grid.CountX {
				continue
			}
			for _, j := range h.Bucket(h.grid.Index(x, y)) {
				fn(j)
			}
		}
	}
}
