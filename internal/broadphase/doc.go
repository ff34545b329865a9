// Package broadphase buckets particles into a uniform grid so the narrow
// phase only tests nearby pairs.
//
// Two layouts share one [Grid] geometry whose cell width is twice the
// largest particle radius:
//
//   - [SpatialHash]: each particle lands in exactly one cell (by centre),
//     stored CSR-style as prefix-summed offsets over a grouped index array.
//     Candidates come from the 3x3 block around a particle's cell.
//   - [FixedGrid]: each particle joins every cell its bounding box touches
//     (at most 2x2), so candidates come from a single cell.
//
// Both are rebuilt from scratch every sub-step into reusable buffers.
package broadphase
