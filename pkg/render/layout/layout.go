// Package layout turns a sheet into a positioned page description.
//
// [Build] runs the grid allocator and spacing resolver for a display mode
// and places every line, label and marker in page pixels. Sinks only paint
// what a [Page] describes; they never compute positions themselves, so the
// SVG, PNG and PDF renderings of one page agree exactly.
//
// A Page is plain data with JSON tags so it can be cached and served to
// front ends that draw their own fretboards.
package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/geometry"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/spacing"
)

// Export pages are US Letter at 96 DPI.
const (
	LetterWidth  = 816.0
	LetterHeight = 1056.0
)

const (
	// ExportMargin surrounds the printable area of an export page.
	ExportMargin = 48.0
	// InteractiveMargin surrounds an interactive page.
	InteractiveMargin = 24.0

	// UntitledDiagram is shown for diagrams without a title.
	UntitledDiagram = "Untitled Chord"

	minInteractiveWidth = 320.0
	titleFontSize       = 24.0
	descFontSize        = 12.0
	headerGap           = 16.0
	cellPadding         = 8.0
)

// Marker kinds, in the order they are painted.
const (
	KindOpen     = "open"
	KindNote     = "note"
	KindRoot     = "root"
	KindSquare   = "square"
	KindTriangle = "triangle"
	KindX        = "x"
)

// Rect is an axis-aligned rectangle in page pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Line is a straight segment. Nut marks the thick top line of a fretboard.
type Line struct {
	X1  float64 `json:"x1"`
	Y1  float64 `json:"y1"`
	X2  float64 `json:"x2"`
	Y2  float64 `json:"y2"`
	Nut bool    `json:"nut,omitempty"`
}

// Text is a single line of text. Y is the vertical centre of the glyphs.
// Anchor is "start", "middle" or "end", as in SVG.
type Text struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Size   float64 `json:"size"`
	Anchor string  `json:"anchor"`
	Value  string  `json:"value"`
	Bold   bool    `json:"bold,omitempty"`
}

// Mark is one marker glyph centred on (X, Y) with radius R.
type Mark struct {
	Kind       string  `json:"kind"`
	Coordinate string  `json:"coordinate"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	R          float64 `json:"r"`
}

// Cell is one grid slot on the page.
type Cell struct {
	Slot int `json:"slot"`
	Row  int `json:"row"`
	Col  int `json:"col"`

	Filled        bool   `json:"filled"`
	Compatible    bool   `json:"compatible"`
	OriginalIndex int    `json:"originalIndex"`
	DiagramID     string `json:"diagramId,omitempty"`

	StringCount int `json:"stringCount,omitempty"`
	FretCount   int `json:"fretCount,omitempty"`

	Frame   Rect   `json:"frame"`
	Board   Rect   `json:"board"`
	Title   *Text  `json:"title,omitempty"`
	Strings []Line `json:"strings,omitempty"`
	Frets   []Line `json:"frets,omitempty"`
	Labels  []Text `json:"labels,omitempty"`
	Marks   []Mark `json:"marks,omitempty"`

	// Warning is set on export cells whose fret class differs from the grid.
	Warning string `json:"warning,omitempty"`
}

// Page is a fully positioned sheet.
type Page struct {
	Mode   string  `json:"mode"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
	Scale  float64 `json:"scale"`

	Title       Text  `json:"title"`
	Description *Text `json:"description,omitempty"`

	Grid    string          `json:"grid"`
	Columns int             `json:"columns"`
	Rows    int             `json:"rows"`
	Profile spacing.Profile `json:"profile"`

	Cells []Cell `json:"cells"`

	// Overflow and Hidden count diagrams that are not on the page.
	Overflow int `json:"overflow,omitempty"`
	Hidden   int `json:"hidden,omitempty"`
}

// metrics are the natural (unscaled) sizes of one cell's parts.
type metrics struct {
	boardW    float64
	gutter    float64
	titleSize float64
	titleH    float64
	lane      float64
	dot       float64
}

func metricsFor(p spacing.Profile) metrics {
	titleSize := math.Max(10, p.CellWidth/10)
	return metrics{
		boardW:    p.CellWidth,
		gutter:    0.15 * p.CellWidth,
		titleSize: titleSize,
		titleH:    titleSize * 1.6,
		lane:      2 * geometry.OpenLaneOffset,
		dot:       dotRadius(p.Tier, p.CellWidth),
	}
}

// dotRadius scales marker dots with the size tier: 8, 10 and 12 percent of
// the board width in diameter.
func dotRadius(t spacing.SizeTier, width float64) float64 {
	pct := 0.12
	switch t {
	case spacing.Medium:
		pct = 0.10
	case spacing.Small:
		pct = 0.08
	}
	return pct * width / 2
}

func (m metrics) cellWidth() float64 { return m.boardW + 2*m.gutter }

func (m metrics) cellHeight(boardH float64) float64 {
	return m.titleH + m.lane + boardH + cellPadding
}

// xform maps natural cell coordinates onto the page.
type xform struct{ ox, oy, s float64 }

func (t xform) x(v float64) float64 { return t.ox + v*t.s }
func (t xform) y(v float64) float64 { return t.oy + v*t.s }
func (t xform) l(v float64) float64 { return v * t.s }

// Build lays out s for mode. Interactive pages keep the configured row count
// and show empty slots; export pages list every diagram and shrink the grid
// until it fits on one Letter page.
func Build(s *sheet.Sheet, mode grid.Mode) Page {
	alloc := s.Allocate(mode)
	prof := s.Profile(mode)
	m := metricsFor(prof)

	cols := max(1, s.Grid.Cols)
	rows := (len(alloc.Slots) + cols - 1) / cols
	gridFrets := s.Grid.Class.FretCount()

	boardH := make([]float64, len(alloc.Slots))
	for i, slot := range alloc.Slots {
		frets := gridFrets
		if slot.Filled {
			frets = grid.ActualFretCount(slot.Diagram)
		}
		boardH[i] = prof.CellHeight * float64(frets) / float64(gridFrets)
	}
	rowH := make([]float64, rows)
	for i := range alloc.Slots {
		r := i / cols
		rowH[r] = math.Max(rowH[r], m.cellHeight(boardH[i]))
	}

	contentW := float64(cols)*m.cellWidth() + float64(cols-1)*prof.ColumnGap
	contentH := float64(max(0, rows-1)) * prof.RowGap
	for _, h := range rowH {
		contentH += h
	}

	page := Page{
		Mode:     mode.String(),
		Grid:     grid.Selection(s.Grid),
		Columns:  cols,
		Rows:     rows,
		Profile:  prof,
		Overflow: alloc.Overflow(),
		Scale:    1,
	}
	if mode == grid.Interactive {
		page.Hidden = alloc.Incompatible()
	}

	margin := InteractiveMargin
	if mode == grid.ExportPreview {
		margin = ExportMargin
	}
	page.Margin = margin

	title := s.Title
	if title == "" {
		title = sheet.DefaultTitle
	}
	headerH := titleFontSize * 1.5
	page.Title = Text{X: margin, Y: margin + headerH/2, Size: titleFontSize, Anchor: "start", Value: title, Bold: true}
	if s.Description != "" {
		page.Description = &Text{
			X: margin, Y: margin + headerH + descFontSize*0.8,
			Size: descFontSize, Anchor: "start", Value: s.Description,
		}
		headerH += descFontSize * 1.6
	}
	headerH += headerGap
	top := margin + headerH

	left := margin
	if mode == grid.ExportPreview {
		page.Width, page.Height = LetterWidth, LetterHeight
		availW := LetterWidth - 2*margin
		availH := LetterHeight - margin - top
		if contentW > 0 && contentH > 0 {
			page.Scale = math.Min(1, math.Min(availW/contentW, availH/contentH))
		}
		left += (availW - contentW*page.Scale) / 2
	} else {
		page.Width = math.Max(minInteractiveWidth, contentW+2*margin)
		page.Height = top + contentH + margin
	}

	page.Cells = make([]Cell, len(alloc.Slots))
	y := 0.0
	for r := range rows {
		for c := range cols {
			i := r*cols + c
			if i >= len(alloc.Slots) {
				break
			}
			t := xform{
				ox: left + page.Scale*float64(c)*(m.cellWidth()+prof.ColumnGap),
				oy: top + page.Scale*y,
				s:  page.Scale,
			}
			page.Cells[i] = buildCell(alloc.Slots[i], i, r, c, m, boardH[i], rowH[r], s.Grid, t)
		}
		y += rowH[r] + prof.RowGap
	}
	return page
}

func buildCell(slot grid.Slot, i, row, col int, m metrics, boardH, rowH float64, cfg grid.Config, t xform) Cell {
	cell := Cell{
		Slot:          i,
		Row:           row,
		Col:           col,
		Filled:        slot.Filled,
		Compatible:    slot.Compatible,
		OriginalIndex: slot.OriginalIndex,
		Frame:         Rect{X: t.x(0), Y: t.y(0), W: t.l(m.cellWidth()), H: t.l(rowH)},
	}
	bx, by := m.gutter, m.titleH+m.lane
	cell.Board = Rect{X: t.x(bx), Y: t.y(by), W: t.l(m.boardW), H: t.l(boardH)}
	if !slot.Filled {
		return cell
	}

	d := slot.Diagram
	n, f := d.StringCount, d.FretCount
	cell.DiagramID = d.ID
	cell.StringCount, cell.FretCount = n, f

	title := d.Title
	if title == "" {
		title = UntitledDiagram
	}
	cell.Title = &Text{
		X: t.x(m.cellWidth() / 2), Y: t.y(m.titleH / 2),
		Size: t.l(m.titleSize), Anchor: "middle", Value: title, Bold: true,
	}

	for s := range n {
		x := bx + geometry.StringX(s, n, m.boardW)
		cell.Strings = append(cell.Strings, Line{X1: t.x(x), Y1: t.y(by), X2: t.x(x), Y2: t.y(by + boardH)})
	}
	for fl := 0; fl <= f; fl++ {
		y := by + geometry.FretY(fl, f, boardH)
		cell.Frets = append(cell.Frets, Line{X1: t.x(bx), Y1: t.y(y), X2: t.x(bx + m.boardW), Y2: t.y(y), Nut: fl == 0})
	}
	for fr, label := range d.FretLabels {
		if label == 0 || fr >= f {
			continue
		}
		cell.Labels = append(cell.Labels, Text{
			X: t.x(bx - m.gutter/2), Y: t.y(by + geometry.RowCenterY(fr, f, boardH)),
			Size: t.l(m.titleSize * 0.8), Anchor: "middle", Value: fmt.Sprint(label),
		})
	}

	place := func(kind string, c diagram.Coordinate, r float64) {
		p := geometry.Position(c, n, f, m.boardW, boardH)
		cell.Marks = append(cell.Marks, Mark{
			Kind: kind, Coordinate: c.String(),
			X: t.x(bx + p.X), Y: t.y(by + p.Y), R: t.l(r),
		})
	}
	openR := math.Min(m.dot, geometry.OpenLaneOffset*0.6)
	for _, s := range d.OpenStringList() {
		place(KindOpen, diagram.Open(s), openR)
	}
	for _, cat := range diagram.Categories {
		for _, c := range d.CoordinatesWith(cat) {
			r := m.dot
			if c.Open {
				r = openR
			}
			place(kindOf(cat), c, r)
		}
	}

	if !slot.Compatible {
		cell.Warning = fmt.Sprintf("%d-fret diagram on a %d-fret sheet", grid.ActualFretCount(d), grid.ExpectedFretCount(cfg))
	}
	return cell
}

func kindOf(c diagram.Category) string {
	switch c {
	case diagram.Root:
		return KindRoot
	case diagram.Square:
		return KindSquare
	case diagram.Triangle:
		return KindTriangle
	case diagram.XMark:
		return KindX
	default:
		return KindNote
	}
}
