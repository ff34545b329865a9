package compute

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/san-kum/partsim/internal/dynamo"
)

type cpuKernel struct {
	name string
	fn   KernelFunc
}

func (k *cpuKernel) Name() string { return k.name }

// CPUHost runs kernels as goroutine-parallel lanes.
//
// Dispatch returns immediately; lanes run in the background until Barrier.
// Binding or reading buffers while a dispatch is in flight fails with
// [dynamo.ErrBarrierRequired].
type CPUHost struct {
	workers  int
	active   *cpuKernel
	bindings *Bindings
	wg       sync.WaitGroup
	pending  bool
}

func NewCPUHost(workers int) *CPUHost {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUHost{
		workers:  workers,
		bindings: newBindings(),
	}
}

func (c *CPUHost) Name() string    { return "cpu" }
func (c *CPUHost) Available() bool { return true }
func (c *CPUHost) Workers() int    { return c.workers }

func (c *CPUHost) Load(source string) (Kernel, error) {
	fn, err := lookup(source)
	if err != nil {
		return nil, err
	}
	return &cpuKernel{name: source, fn: fn}, nil
}

func (c *CPUHost) Activate(k Kernel) error {
	ck, ok := k.(*cpuKernel)
	if !ok {
		return fmt.Errorf("%w: %T is not a cpu kernel", dynamo.ErrKernelLoad, k)
	}
	c.active = ck
	return nil
}

func (c *CPUHost) BindBuffer(slot uint32, data any, mode Access) error {
	if c.pending {
		return fmt.Errorf("%w: bind slot %d", dynamo.ErrBarrierRequired, slot)
	}
	return c.bindings.bind(slot, data, mode)
}

func (c *CPUHost) Dispatch(groups uint32) error {
	if c.active == nil {
		return fmt.Errorf("%w: no active kernel", dynamo.ErrDispatch)
	}
	if c.pending {
		return fmt.Errorf("%w: previous dispatch not complete", dynamo.ErrBarrierRequired)
	}

	lane, err := c.active.fn(c.bindings)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", dynamo.ErrDispatch, c.active.name, err)
	}

	n := int(groups) * WorkGroupSize
	c.pending = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		dynamo.ParallelFor(n, WorkGroupSize, c.workers, func(start, end int) {
			for gid := start; gid < end; gid++ {
				lane(uint32(gid))
			}
		})
	}()
	return nil
}

func (c *CPUHost) Barrier() error {
	c.wg.Wait()
	c.pending = false
	return nil
}

func (c *CPUHost) ReadBuffer(slot uint32, dst any) error {
	if c.pending {
		return fmt.Errorf("%w: read slot %d", dynamo.ErrBarrierRequired, slot)
	}
	return c.bindings.read(slot, dst)
}

func (c *CPUHost) Cleanup() {
	c.wg.Wait()
	c.pending = false
	c.active = nil
	c.bindings = newBindings()
}
