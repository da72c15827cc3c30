// Package grid decides which diagrams may occupy a display grid and places
// them into slots.
//
// A [Config] fixes the grid shape and the fret class it expects.
// [IsCompatible] compares a diagram against that class, and [Allocate] turns
// an ordered diagram list into slots for one of two modes:
//
//   - [Interactive]: exactly rows*cols slots, compatible diagrams only,
//     extras dropped from the view and reported by [Allocation.Overflow]
//   - [ExportPreview]: every diagram in source order, each flagged with
//     its compatibility so renderers can warn without omitting content
//
// Allocation is a pure function of its arguments. Removing a diagram shifts
// the OriginalIndex of every later slot on the next call.
package grid
