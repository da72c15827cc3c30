package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"pgregory.net/rapid"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func sheetWith(cfg grid.Config, diagrams ...diagram.Diagram) *sheet.Sheet {
	s := sheet.New()
	s.Grid = cfg
	s.Diagrams = diagrams
	return s
}

func TestBuildInteractiveKeepsEmptySlots(t *testing.T) {
	s := sheetWith(grid.Config{Rows: 2, Cols: 2, Class: grid.SixFret},
		diagram.New("C", 6, 6),
	)
	p := Build(s, grid.Interactive)

	if len(p.Cells) != 4 {
		t.Fatalf("len(Cells) = %d, want 4", len(p.Cells))
	}
	if p.Rows != 2 || p.Columns != 2 {
		t.Errorf("grid = %dx%d, want 2x2", p.Columns, p.Rows)
	}
	if !p.Cells[0].Filled || p.Cells[1].Filled {
		t.Errorf("filled = %v,%v, want true,false", p.Cells[0].Filled, p.Cells[1].Filled)
	}
	if p.Cells[1].OriginalIndex != grid.NoIndex {
		t.Errorf("empty OriginalIndex = %d, want %d", p.Cells[1].OriginalIndex, grid.NoIndex)
	}
	if p.Scale != 1 {
		t.Errorf("Scale = %v, want 1", p.Scale)
	}
}

func TestBuildInteractiveCountsHiddenAndOverflow(t *testing.T) {
	s := sheetWith(grid.Config{Rows: 1, Cols: 2, Class: grid.SixFret},
		diagram.New("A", 6, 6),
		diagram.New("wide", 6, 12),
		diagram.New("B", 6, 6),
		diagram.New("C", 6, 6),
	)
	p := Build(s, grid.Interactive)
	if p.Hidden != 1 {
		t.Errorf("Hidden = %d, want 1", p.Hidden)
	}
	if p.Overflow != 1 {
		t.Errorf("Overflow = %d, want 1", p.Overflow)
	}
	if got := p.Cells[1].OriginalIndex; got != 2 {
		t.Errorf("Cells[1].OriginalIndex = %d, want 2", got)
	}
}

func TestBuildExportFitsLetter(t *testing.T) {
	var ds []diagram.Diagram
	for range 40 {
		ds = append(ds, diagram.New("", 6, 6))
	}
	p := Build(sheetWith(grid.Config{Rows: 4, Cols: 4, Class: grid.SixFret}, ds...), grid.ExportPreview)

	if p.Width != LetterWidth || p.Height != LetterHeight {
		t.Errorf("page = %vx%v, want Letter", p.Width, p.Height)
	}
	if len(p.Cells) != 40 {
		t.Errorf("len(Cells) = %d, want 40", len(p.Cells))
	}
	if p.Scale >= 1 {
		t.Errorf("Scale = %v, want < 1 for 10 rows", p.Scale)
	}
	for _, c := range p.Cells {
		if c.Frame.X < p.Margin-1e-6 || c.Frame.X+c.Frame.W > p.Width-p.Margin+1e-6 {
			t.Fatalf("cell %d spans x [%v,%v], outside margins", c.Slot, c.Frame.X, c.Frame.X+c.Frame.W)
		}
		if c.Frame.Y+c.Frame.H > p.Height-p.Margin+1e-6 {
			t.Fatalf("cell %d ends at y=%v, past bottom margin", c.Slot, c.Frame.Y+c.Frame.H)
		}
	}
}

func TestBuildExportWarnsIncompatible(t *testing.T) {
	s := sheetWith(grid.Config{Rows: 2, Cols: 2, Class: grid.SixFret},
		diagram.New("A", 6, 6),
		diagram.New("wide", 6, 12),
	)
	p := Build(s, grid.ExportPreview)
	if p.Cells[0].Warning != "" {
		t.Errorf("compatible cell warning = %q, want none", p.Cells[0].Warning)
	}
	if want := "12-fret diagram on a 6-fret sheet"; p.Cells[1].Warning != want {
		t.Errorf("warning = %q, want %q", p.Cells[1].Warning, want)
	}
	if p.Cells[1].Board.H <= p.Cells[0].Board.H {
		t.Error("12-fret board should be taller than 6-fret board")
	}
}

func TestBuildCellLines(t *testing.T) {
	d := diagram.New("", 4, 6)
	p := Build(sheetWith(grid.Config{Rows: 1, Cols: 1, Class: grid.SixFret}, d), grid.Interactive)
	c := p.Cells[0]

	if len(c.Strings) != 4 {
		t.Errorf("len(Strings) = %d, want 4", len(c.Strings))
	}
	if len(c.Frets) != 7 {
		t.Errorf("len(Frets) = %d, want 7", len(c.Frets))
	}
	if !c.Frets[0].Nut || c.Frets[1].Nut {
		t.Error("only the first fret line should be the nut")
	}
	if c.Title == nil || c.Title.Value != UntitledDiagram {
		t.Errorf("Title = %+v, want %q", c.Title, UntitledDiagram)
	}
	if !approx(c.Strings[0].X1, c.Board.X) || !approx(c.Strings[3].X1, c.Board.X+c.Board.W) {
		t.Error("outer strings should sit on the board edges")
	}
}

func TestBuildMarks(t *testing.T) {
	d := diagram.New("G", 6, 6)
	d = diagram.SetMarker(d, diagram.Fretted(5, 2), diagram.Root, true)
	d = diagram.SetMarker(d, diagram.Fretted(5, 2), diagram.Square, true)
	d = diagram.SetMarker(d, diagram.Fretted(0, 0), diagram.XMark, true)
	d = diagram.SetOpenString(d, 3, true)
	d = diagram.SetFretLabel(d, 2, 3)

	p := Build(sheetWith(grid.Default(), d), grid.Interactive)
	c := p.Cells[0]

	var kinds []string
	for _, m := range c.Marks {
		kinds = append(kinds, m.Kind)
	}
	want := []string{KindOpen, KindRoot, KindSquare, KindX}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}

	open := c.Marks[0]
	if open.Y >= c.Board.Y {
		t.Errorf("open mark y = %v, want above the nut at %v", open.Y, c.Board.Y)
	}
	if len(c.Labels) != 1 || c.Labels[0].Value != "3" {
		t.Fatalf("Labels = %+v, want one label \"3\"", c.Labels)
	}
	if c.Labels[0].X >= c.Board.X {
		t.Error("fret label should sit left of the board")
	}
	if !approx(c.Labels[0].Y, c.Marks[1].Y) {
		t.Errorf("label y = %v, want row centre %v", c.Labels[0].Y, c.Marks[1].Y)
	}
}

func TestBuildTitles(t *testing.T) {
	s := sheet.New()
	s.Title = ""
	s.Description = "warmups"
	p := Build(s, grid.Interactive)
	if p.Title.Value != sheet.DefaultTitle {
		t.Errorf("Title = %q, want %q", p.Title.Value, sheet.DefaultTitle)
	}
	if p.Description == nil || p.Description.Value != "warmups" {
		t.Errorf("Description = %+v, want warmups", p.Description)
	}
}

// Every mark lies inside its cell's frame, at any grid and diagram mix.
func TestMarksInsideFrame(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		class := rapid.SampledFrom([]grid.DiagramTypeClass{grid.SixFret, grid.TwelveFret}).Draw(t, "class")
		cfg := grid.Config{
			Rows:  rapid.IntRange(1, 6).Draw(t, "rows"),
			Cols:  rapid.IntRange(1, 8).Draw(t, "cols"),
			Class: class,
		}
		var ds []diagram.Diagram
		for range rapid.IntRange(0, 12).Draw(t, "n") {
			strs := rapid.SampledFrom([]int{4, 6}).Draw(t, "strings")
			frets := rapid.SampledFrom([]int{6, 12}).Draw(t, "frets")
			d := diagram.New("", strs, frets)
			s := rapid.IntRange(0, strs-1).Draw(t, "s")
			d = diagram.SetMarker(d, diagram.Fretted(s, rapid.IntRange(0, frets-1).Draw(t, "f")), diagram.Note, true)
			d = diagram.SetMarker(d, diagram.Open(s), diagram.Root, true)
			ds = append(ds, d)
		}
		mode := rapid.SampledFrom([]grid.Mode{grid.Interactive, grid.ExportPreview}).Draw(t, "mode")
		p := Build(sheetWith(cfg, ds...), mode)

		for _, c := range p.Cells {
			for _, m := range c.Marks {
				if m.X < c.Frame.X || m.X > c.Frame.X+c.Frame.W || m.Y < c.Frame.Y || m.Y > c.Frame.Y+c.Frame.H {
					t.Fatalf("mark %s at (%v,%v) outside frame %+v", m.Coordinate, m.X, m.Y, c.Frame)
				}
			}
		}
	})
}
