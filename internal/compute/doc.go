// Package compute hosts the data-parallel collision kernel.
//
// A [Host] mirrors the shape of a GPU compute API:
//
//	k, err := host.Load("solve_collisions")
//	host.Activate(k)
//	host.BindBuffer(compute.SlotPositions, positions, compute.ReadWrite)
//	host.Dispatch(compute.Groups(n))
//	host.Barrier()
//	host.ReadBuffer(compute.SlotPositions, positions)
//
// Two hosts are available:
//
//   - CPU: runs one lane per work item across goroutines
//   - OpenGL: compiles a GLSL 4.30 compute shader (needs a current context)
//
// # Consistency
//
// Lanes of one dispatch share the bound buffers without synchronisation.
// A lane may observe another lane's write or not; results are best-effort
// and converge over repeated sub-steps. Only [Host.Barrier] guarantees that
// every write of a dispatch is visible, and buffers cannot be read back
// before it.
package compute
