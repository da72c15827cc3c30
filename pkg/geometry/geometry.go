// Package geometry maps diagram coordinates to positions inside a diagram's
// bounding box and back.
//
// Every renderer places markers through [Position] and the editor resolves
// clicks through [HitTest]; both are built on [MapFretted] and [MapOpen], so
// a marker is always drawn exactly where a click would address it.
//
// Percentages are relative to the fretboard box: x runs from the first string
// (0) to the last string (100), y from the nut (0) to the bottom of the last
// fret row (100). The open lane sits [OpenLaneOffset] pixels above the nut,
// outside the box.
package geometry

import (
	"fmt"
	"math"

	"github.com/matzehuels/fretsheet/pkg/diagram"
)

// OpenLaneOffset is the distance in CSS pixels between the nut (y = 0) and
// the centre of the open-string lane above it.
const OpenLaneOffset = 14.0

// Point is a position in CSS pixels relative to the fretboard box's top-left
// corner.
type Point struct {
	X, Y float64
}

// MapFretted returns the centre of fret row fretIndex on string stringIndex,
// as percentages of the fretboard box. Strings are spaced evenly edge to edge
// and markers sit in the middle of their fret row.
//
// It panics if the address lies outside a stringCount × fretCount diagram.
func MapFretted(stringIndex, fretIndex, stringCount, fretCount int) (xPercent, yPercent float64) {
	mustStrings(stringIndex, stringCount)
	if fretCount < 1 || fretIndex < 0 || fretIndex >= fretCount {
		panic(fmt.Sprintf("geometry: fret %d out of range for %d frets", fretIndex, fretCount))
	}
	xPercent = stringX(stringIndex, stringCount)
	yPercent = 100*float64(fretIndex)/float64(fretCount) + 50/float64(fretCount)
	return xPercent, yPercent
}

// MapOpen returns the horizontal position of string stringIndex's open lane
// as a percentage of the box width. The lane's vertical position is fixed at
// [OpenLaneOffset] above the nut.
func MapOpen(stringIndex, stringCount int) (xPercent float64) {
	mustStrings(stringIndex, stringCount)
	return stringX(stringIndex, stringCount)
}

// Position converts c to pixels inside a box of the given size.
func Position(c diagram.Coordinate, stringCount, fretCount int, width, height float64) Point {
	if c.Open {
		return Point{X: width * MapOpen(c.StringIndex, stringCount) / 100, Y: -OpenLaneOffset}
	}
	x, y := MapFretted(c.StringIndex, c.FretIndex, stringCount, fretCount)
	return Point{X: width * x / 100, Y: height * y / 100}
}

// StringX returns the x pixel of string line s.
func StringX(s, stringCount int, width float64) float64 {
	return width * MapOpen(s, stringCount) / 100
}

// FretY returns the y pixel of fret line f, where line 0 is the nut and line
// fretCount is the bottom edge of the box.
func FretY(f, fretCount int, height float64) float64 {
	if f < 0 || f > fretCount {
		panic(fmt.Sprintf("geometry: fret line %d out of range for %d frets", f, fretCount))
	}
	return height * float64(f) / float64(fretCount)
}

// RowCenterY returns the y pixel of the centre of fret row f, which is where
// its fret label is drawn.
func RowCenterY(f, fretCount int, height float64) float64 {
	_, y := MapFretted(0, f, 2, fretCount)
	return height * y / 100
}

// HitTest resolves a click at p inside a box of the given size to the
// coordinate it addresses. A click belongs to the nearest string when it is
// within half a string spacing of it. Clicks above the nut, up to twice
// [OpenLaneOffset], address the open lane. ok is false for clicks that miss
// the diagram entirely.
func HitTest(p Point, stringCount, fretCount int, width, height float64) (c diagram.Coordinate, ok bool) {
	if stringCount < 2 || fretCount < 1 || width <= 0 || height <= 0 {
		return diagram.Coordinate{}, false
	}

	spacing := width / float64(stringCount-1)
	s := int(math.Round(p.X / spacing))
	if s < 0 || s >= stringCount || math.Abs(p.X-float64(s)*spacing) > spacing/2 {
		return diagram.Coordinate{}, false
	}

	switch {
	case p.Y < 0:
		if p.Y < -2*OpenLaneOffset {
			return diagram.Coordinate{}, false
		}
		return diagram.Open(s), true
	case p.Y >= height:
		return diagram.Coordinate{}, false
	default:
		f := int(math.Floor(p.Y * float64(fretCount) / height))
		return diagram.Fretted(s, f), true
	}
}

func stringX(s, stringCount int) float64 {
	return 100 * float64(s) / float64(stringCount-1)
}

func mustStrings(s, stringCount int) {
	if stringCount < 2 || s < 0 || s >= stringCount {
		panic(fmt.Sprintf("geometry: string %d out of range for %d strings", s, stringCount))
	}
}
