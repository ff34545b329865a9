// Package collision resolves overlapping particle pairs.
//
// Every strategy applies the same pairwise response: overlapping circles are
// pushed apart along the line between their centres by 0.75 of the overlap,
// each taking a share proportional to the other's radius. Strategies differ
// only in which pairs they test:
//
//   - [BruteForce]: every pair, O(n^2)
//   - [FixedGrid]: pairs sharing a cell of a [broadphase.FixedGrid]
//   - [SpatialHash]: the 3x3 cell block around each particle, dispatched as a
//     data-parallel kernel on a [compute.Host] or scanned sequentially
//
// Resolvers hold scratch buffers only; each call depends on nothing but the
// particles passed in.
package collision
