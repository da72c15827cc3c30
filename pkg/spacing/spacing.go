// Package spacing resolves gap sizes and cell dimensions for a grid layout.
//
// [Resolve] is a fixed table lookup keyed by column count, fret class and
// render context. All lengths are CSS pixels at 96 DPI, so ExportPreview
// gaps correspond to fixed physical distances on a printed page.
package spacing

import (
	"fmt"

	"github.com/matzehuels/fretsheet/pkg/grid"
)

// SizeTier is the display size of one diagram cell.
type SizeTier int

const (
	Large SizeTier = iota
	Medium
	Small
)

func (t SizeTier) String() string {
	switch t {
	case Large:
		return "large"
	case Medium:
		return "medium"
	case Small:
		return "small"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// smaller returns the next tier down, staying at Small.
func (t SizeTier) smaller() SizeTier {
	if t >= Small {
		return Small
	}
	return t + 1
}

// Profile is the resolved spacing for one grid.
type Profile struct {
	RowGap    float64  `json:"rowGap"`
	ColumnGap float64  `json:"columnGap"`
	Tier      SizeTier `json:"tier"`

	// CellWidth and CellHeight are the fretboard box for one diagram.
	CellWidth  float64 `json:"cellWidth"`
	CellHeight float64 `json:"cellHeight"`
}

type gaps struct{ row, col float64 }

type tierRow struct {
	maxCols     int // inclusive; 0 means unbounded
	sixFret     SizeTier
	interactive gaps
	export      gaps
}

// Twelve-fret diagrams take one tier below six-fret at the same width,
// except in the widest tier where Large is kept.
var table = []tierRow{
	{maxCols: 2, sixFret: Large, interactive: gaps{24, 24}, export: gaps{48, 36}},
	{maxCols: 4, sixFret: Large, interactive: gaps{16, 16}, export: gaps{32, 24}},
	{maxCols: 6, sixFret: Medium, interactive: gaps{12, 12}, export: gaps{20, 16}},
	{maxCols: 0, sixFret: Small, interactive: gaps{8, 8}, export: gaps{12, 10}},
}

func lookup(columns int) tierRow {
	for _, r := range table {
		if r.maxCols == 0 || columns <= r.maxCols {
			return r
		}
	}
	return table[len(table)-1]
}

// Resolve returns the spacing profile for a grid with the given number of
// columns. It is deterministic and never fails; non-positive column counts
// fall into the narrowest tier.
func Resolve(columns int, class grid.DiagramTypeClass, ctx grid.Mode) Profile {
	r := lookup(columns)

	tier := r.sixFret
	if class.Resolve() == grid.TwelveFret && r.maxCols != 2 {
		tier = tier.smaller()
	}

	g := r.interactive
	if ctx == grid.ExportPreview {
		g = r.export
	}

	w, h := CellSize(tier, class)
	return Profile{RowGap: g.row, ColumnGap: g.col, Tier: tier, CellWidth: w, CellHeight: h}
}

// Six-fret cell boxes per tier.
var cellBoxes = map[SizeTier][2]float64{
	Large:  {160, 240},
	Medium: {120, 180},
	Small:  {80, 120},
}

// CellSize returns the fretboard box for a tier. Twelve-fret boxes are
// taller than six-fret boxes by the ratio of their fret counts.
func CellSize(tier SizeTier, class grid.DiagramTypeClass) (width, height float64) {
	box, ok := cellBoxes[tier]
	if !ok {
		box = cellBoxes[Small]
	}
	ratio := float64(class.FretCount()) / 6
	return box[0], box[1] * ratio
}
