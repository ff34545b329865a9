package collision

import (
	"fmt"
	"slices"

	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/dynamo"
)

// SpatialHashResolver tests each particle against the 3x3 block of cells
// around it.
//
// With a host it dispatches one kernel lane per particle; lanes run
// concurrently without ordering, so a single pass may under- or
// over-correct. Without a host it scans pairs sequentially in ascending
// index order. Candidates are fixed when the hash is built, so this matches
// [BruteForceResolver] pair for pair only when no correction during the pass
// brings two particles into contact from outside each other's 3x3 block.
type SpatialHashResolver struct {
	hash   *broadphase.SpatialHash
	host   compute.Host
	kernel compute.Kernel

	positions  []float32
	radii      []float32
	candidates []int32
}

// NewSpatialHash loads the kernel from source on host. A kernel that fails
// to load is returned as an error; there is no implicit CPU fallback.
func NewSpatialHash(g broadphase.Grid, host compute.Host, source string) (*SpatialHashResolver, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil host", dynamo.ErrKernelLoad)
	}
	if source == "" {
		source = KernelName
	}
	k, err := host.Load(source)
	if err != nil {
		return nil, fmt.Errorf("loading %s on %s: %w", source, host.Name(), err)
	}
	return &SpatialHashResolver{
		hash:   broadphase.NewSpatialHash(g),
		host:   host,
		kernel: k,
	}, nil
}

// NewSequentialSpatialHash resolves on the calling goroutine in a fixed order.
func NewSequentialSpatialHash(g broadphase.Grid) *SpatialHashResolver {
	return &SpatialHashResolver{hash: broadphase.NewSpatialHash(g)}
}

func (s *SpatialHashResolver) Strategy() Strategy { return SpatialHash }

// Hash exposes the broad-phase structure built by the last Resolve.
func (s *SpatialHashResolver) Hash() *broadphase.SpatialHash { return s.hash }

// Sequential reports whether no kernel host is used.
func (s *SpatialHashResolver) Sequential() bool { return s.host == nil }

func (s *SpatialHashResolver) Resolve(ps []dynamo.Particle) error {
	s.hash.Build(ps)
	if len(ps) == 0 {
		return nil
	}
	if s.host == nil {
		s.resolveSequential(ps)
		return nil
	}
	return s.dispatch(ps)
}

func (s *SpatialHashResolver) resolveSequential(ps []dynamo.Particle) {
	for i := range ps {
		s.candidates = s.candidates[:0]
		s.hash.Neighbors(i, func(j int32) {
			if int(j) > i {
				s.candidates = append(s.candidates, j)
			}
		})
		slices.Sort(s.candidates)
		for _, j := range s.candidates {
			Collide(ps, i, int(j))
		}
	}
}

func (s *SpatialHashResolver) dispatch(ps []dynamo.Particle) error {
	n := len(ps)
	s.positions = resizeFloat32(s.positions, 2*n)
	s.radii = resizeFloat32(s.radii, n)
	for i := range ps {
		s.positions[2*i] = float32(ps[i].Pos.X)
		s.positions[2*i+1] = float32(ps[i].Pos.Y)
		s.radii[i] = float32(ps[i].Radius)
	}

	g := s.hash.Grid()
	meta := compute.Meta{
		CellWidth:     float32(g.CellWidth),
		CellCountX:    int32(g.CountX),
		CellCountY:    int32(g.CountY),
		ParticleCount: int32(n),
	}

	h := s.host
	if err := h.Activate(s.kernel); err != nil {
		return err
	}
	binds := []struct {
		slot uint32
		data any
		mode compute.Access
	}{
		{compute.SlotPositions, s.positions, compute.ReadWrite},
		{compute.SlotOffsets, s.hash.Offsets, compute.ReadOnly},
		{compute.SlotGrouped, s.hash.Grouped, compute.ReadOnly},
		{compute.SlotMeta, meta, compute.ReadOnly},
		{compute.SlotRadii, s.radii, compute.ReadOnly},
	}
	for _, b := range binds {
		if err := h.BindBuffer(b.slot, b.data, b.mode); err != nil {
			return fmt.Errorf("%w: %v", dynamo.ErrDispatch, err)
		}
	}

	if err := h.Dispatch(compute.Groups(n)); err != nil {
		return err
	}
	if err := h.Barrier(); err != nil {
		return fmt.Errorf("%w: barrier: %v", dynamo.ErrDispatch, err)
	}
	if err := h.ReadBuffer(compute.SlotPositions, s.positions); err != nil {
		return fmt.Errorf("%w: read back: %v", dynamo.ErrDispatch, err)
	}

	// Only touch particles the kernel moved so untouched ones keep full precision.
	for i := range ps {
		x, y := s.positions[2*i], s.positions[2*i+1]
		if x != float32(ps[i].Pos.X) {
			ps[i].Pos.X = float64(x)
		}
		if y != float32(ps[i].Pos.Y) {
			ps[i].Pos.Y = float64(y)
		}
	}
	return nil
}

func resizeFloat32(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
