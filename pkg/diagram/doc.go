// Package diagram models a single fretted-instrument diagram.
//
// A [Diagram] is a strings × frets grid (4 or 6 strings, 6 or 12 frets)
// with optional per-row fret labels, a set of open strings, and a mapping
// from [Coordinate] to a [MarkerSet] of overlay categories
// ([Note], [Root], [XMark], [Triangle], [Square]).
//
// # Invariants
//
// Every mutation goes through one of [SetMarker], [SetOpenString],
// [SetFretLabel] or [Resize], which together guarantee:
//
//   - all coordinates lie inside the diagram's geometry
//   - Note and Root never coexist at one coordinate
//   - an open-lane coordinate only carries markers while its string is open
//   - len(FretLabels) == FretCount
//   - a geometry change resets markers, open strings and fret labels
//
// Out-of-bounds coordinates are programming errors and panic. Data from
// outside the process should be checked with [Diagram.Validate] instead.
//
// # Usage
//
//	d := diagram.New("C major", diagram.SixStrings, diagram.SixFrets)
//	d = diagram.SetMarker(d, diagram.Fretted(4, 2), diagram.Root, true)
//	d = diagram.SetMarker(d, diagram.Open(2), diagram.Note, true) // opens string 2
//	d = diagram.SetMarker(d, diagram.Open(5), diagram.XMark, true)
package diagram
