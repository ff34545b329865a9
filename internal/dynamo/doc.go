// Package dynamo provides the core particle primitives shared by the solver.
//
// The package defines the state every other stage mutates in place:
//
//   - [Particle]: position, previous position, accumulated force and radius
//   - [Store]: append-only particle container addressed by [Handle]
//   - [ParallelFor]: chunked data-parallel loop used by the CPU kernel host
//
// Velocity is never stored. It is always the delta between a particle's
// position and its previous position.
//
// # Thread Safety
//
// A Store is NOT thread-safe. The solver mutates it from a single goroutine
// between frames; only the collision kernel touches positions concurrently,
// and it does so through its own buffers.
package dynamo
