package collision

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/compute"
)

// KernelName is the source identifier of the collision kernel.
const KernelName = "solve_collisions"

func init() {
	compute.Register(KernelName, solveCollisionsKernel)
}

// solveCollisionsKernel moves particle gid out of every neighbour it overlaps.
// Each lane writes only its own position, after reading neighbours that other
// lanes may be moving at the same time.
func solveCollisionsKernel(b *compute.Bindings) (compute.LaneFunc, error) {
	positions, err := b.Float32(compute.SlotPositions)
	if err != nil {
		return nil, err
	}
	offsets, err := b.Int32(compute.SlotOffsets)
	if err != nil {
		return nil, err
	}
	grouped, err := b.Int32(compute.SlotGrouped)
	if err != nil {
		return nil, err
	}
	meta, err := b.Meta(compute.SlotMeta)
	if err != nil {
		return nil, err
	}
	radii, err := b.Float32(compute.SlotRadii)
	if err != nil {
		return nil, err
	}

	n := int(meta.ParticleCount)
	cells := int(meta.CellCountX) * int(meta.CellCountY)
	switch {
	case meta.CellWidth <= 0:
		return nil, fmt.Errorf("cell width %v", meta.CellWidth)
	case len(positions) < 2*n || len(radii) < n || len(grouped) < n:
		return nil, fmt.Errorf("buffers shorter than %d particles", n)
	case len(offsets) != cells+1:
		return nil, fmt.Errorf("offsets length %d, want %d", len(offsets), cells+1)
	}

	coord := func(v float32, count int32) int32 {
		c := int32(math.Floor(float64(v / meta.CellWidth)))
		if c < 0 {
			return 0
		}
		if c >= count {
			return count - 1
		}
		return c
	}

	return func(gid uint32) {
		i := int(gid)
		if i >= n {
			return
		}

		x := compute.LoadFloat32(positions, 2*i)
		y := compute.LoadFloat32(positions, 2*i+1)
		ri := radii[i]
		cx, cy := coord(x, meta.CellCountX), coord(y, meta.CellCountY)

		for gy := max(cy-1, 0); gy <= min(cy+1, meta.CellCountY-1); gy++ {
			for gx := max(cx-1, 0); gx <= min(cx+1, meta.CellCountX-1); gx++ {
				h := gy*meta.CellCountX + gx
				for k := offsets[h]; k < offsets[h+1]; k++ {
					j := int(grouped[k])
					if j == i {
						continue
					}
					rj := radii[j]
					ax := x - compute.LoadFloat32(positions, 2*j)
					ay := y - compute.LoadFloat32(positions, 2*j+1)
					d := float32(math.Sqrt(float64(ax*ax + ay*ay)))
					sumR := ri + rj
					if d < sumR && d > Epsilon {
						delta := Response * (sumR - d)
						s := rj / sumR * delta / d
						x += s * ax
						y += s * ay
					}
				}
			}
		}

		compute.StoreFloat32(positions, 2*i, x)
		compute.StoreFloat32(positions, 2*i+1, y)
	}, nil
}
