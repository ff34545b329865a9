package compute

import (
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/partsim/internal/dynamo"
)

// LaneFunc runs one work item identified by its global invocation id.
type LaneFunc func(gid uint32)

// KernelFunc prepares a lane function from the buffers bound for a dispatch.
type KernelFunc func(b *Bindings) (LaneFunc, error)

var (
	kernelsMu sync.RWMutex
	kernels   = make(map[string]KernelFunc)
)

// Register makes a CPU kernel loadable under name.
func Register(name string, fn KernelFunc) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	kernels[name] = fn
}

func lookup(name string) (KernelFunc, error) {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	fn, ok := kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: no cpu kernel %q", dynamo.ErrKernelLoad, name)
	}
	return fn, nil
}

// Registered lists the CPU kernel names.
func Registered() []string {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
