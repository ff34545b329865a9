package compute

import (
	"fmt"
	"strings"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Access describes how a kernel uses a bound buffer.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// Buffer slots of the collision kernel.
const (
	SlotPositions uint32 = 0 // interleaved x, y float32, read-write
	SlotOffsets   uint32 = 1 // bucket offsets int32, read-only
	SlotGrouped   uint32 = 2 // grouped particle indices int32, read-only
	SlotMeta      uint32 = 3 // Meta block, read-only
	SlotRadii     uint32 = 4 // radius per particle float32, read-only
)

// WorkGroupSize is the number of lanes per dispatched group.
const WorkGroupSize = 64

// Meta is the fixed-layout metadata block bound at SlotMeta.
type Meta struct {
	CellWidth     float32
	CellCountX    int32
	CellCountY    int32
	ParticleCount int32
}

// Groups returns the number of work groups covering n items.
func Groups(n int) uint32 {
	return uint32((n + WorkGroupSize - 1) / WorkGroupSize)
}

// Kernel is a loaded, ready-to-activate program.
type Kernel interface {
	Name() string
}

// Host loads kernels, binds buffers and dispatches work.
type Host interface {
	Name() string
	Available() bool
	Load(source string) (Kernel, error)
	Activate(k Kernel) error
	BindBuffer(slot uint32, data any, mode Access) error
	Dispatch(groups uint32) error
	// Barrier blocks until every write of the last dispatch is visible.
	Barrier() error
	ReadBuffer(slot uint32, dst any) error
	Cleanup()
}

// NewHost returns the host registered under name.
func NewHost(name string, workers int) (Host, error) {
	switch canonical, _ := CanonicalHost(name); canonical {
	case "cpu":
		return NewCPUHost(workers), nil
	case "opengl":
		return NewOpenGLHost(), nil
	}
	return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownHost, name)
}

// CanonicalHost maps a host name or alias, in any case, to "cpu" or
// "opengl". An empty name selects the cpu host.
func CanonicalHost(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "", "cpu":
		return "cpu", true
	case "opengl", "gl":
		return "opengl", true
	}
	return "", false
}

// KnownHost reports whether NewHost accepts name.
func KnownHost(name string) bool {
	_, ok := CanonicalHost(name)
	return ok
}
