// Package styles defines the visual themes shared by every sheet renderer.
//
// A [Style] supplies a [Palette] that both the SVG and the raster sinks
// read, so an exported PNG and its SVG use identical colours and stroke
// widths. Geometry never comes from a style; styles only decide how a shape
// already positioned by the layout is painted.
package styles

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Style defines the visual appearance of a rendered sheet.
type Style interface {
	// Name is the identifier used on the command line and in cache keys.
	Name() string
	// Palette returns the colours and stroke widths for this style.
	Palette() Palette
	// RenderDefs writes SVG <defs>/<style> content.
	RenderDefs(buf *bytes.Buffer)
}

// Palette holds colours as "#rrggbb" strings and stroke widths in CSS px.
type Palette struct {
	Background string
	Frame      string // cell outline
	Line       string // strings and frets
	Nut        string
	Text       string
	Muted      string // fret labels and empty-slot outlines

	Note     string
	Root     string
	Symbol   string // x, triangle and square outlines
	Warning  string
	WarnText string

	LineWidth   float64
	NutWidth    float64
	SymbolWidth float64

	FontFamily string
}

// Classic mirrors the on-screen editor: grey grid, blue notes, red roots.
type Classic struct{}

func (Classic) Name() string { return "classic" }

func (Classic) Palette() Palette {
	return Palette{
		Background:  "#ffffff",
		Frame:       "#d1d5db",
		Line:        "#9ca3af",
		Nut:         "#374151",
		Text:        "#111827",
		Muted:       "#6b7280",
		Note:        "#3b82f6",
		Root:        "#dc2626",
		Symbol:      "#111827",
		Warning:     "#f59e0b",
		WarnText:    "#78350f",
		LineWidth:   1,
		NutWidth:    3,
		SymbolWidth: 2,
		FontFamily:  "Helvetica, Arial, sans-serif",
	}
}

func (c Classic) RenderDefs(buf *bytes.Buffer) { renderDefs(buf, c.Palette()) }

// Ink is a black-and-white style for monochrome printers. Roots are drawn
// hollow so they stay distinguishable from plain notes without colour.
type Ink struct{}

func (Ink) Name() string { return "ink" }

func (Ink) Palette() Palette {
	return Palette{
		Background:  "#ffffff",
		Frame:       "#000000",
		Line:        "#000000",
		Nut:         "#000000",
		Text:        "#000000",
		Muted:       "#4b5563",
		Note:        "#000000",
		Root:        "#000000",
		Symbol:      "#000000",
		Warning:     "#000000",
		WarnText:    "#ffffff",
		LineWidth:   1.2,
		NutWidth:    4,
		SymbolWidth: 2.2,
		FontFamily:  "Helvetica, Arial, sans-serif",
	}
}

func (i Ink) RenderDefs(buf *bytes.Buffer) { renderDefs(buf, i.Palette()) }

// HollowRoot reports whether roots are drawn as rings rather than dots.
func HollowRoot(s Style) bool {
	p := s.Palette()
	return p.Root == p.Note
}

func renderDefs(buf *bytes.Buffer, p Palette) {
	fmt.Fprintf(buf, `  <style>text { font-family: %s; fill: %s; }</style>`+"\n", p.FontFamily, p.Text)
}

var registry = map[string]Style{
	Classic{}.Name(): Classic{},
	Ink{}.Name():     Ink{},
}

// Default is the style used when none is requested.
const Default = "classic"

// Lookup returns the style registered under name.
func Lookup(name string) (Style, bool) {
	s, ok := registry[strings.ToLower(name)]
	return s, ok
}

// Names lists every registered style, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
