package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/matzehuels/fretsheet/pkg/render/layout"
	"github.com/matzehuels/fretsheet/pkg/render/styles"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style      styles.Style
	ids        bool
	emptySlots bool
}

// WithStyle sets the visual style (default [styles.Classic]).
func WithStyle(s styles.Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithIDs adds id and data attributes to each cell so a browser front end can
// map clicks back to diagrams.
func WithIDs() SVGOption { return func(r *svgRenderer) { r.ids = true } }

// WithEmptySlots draws dashed outlines for unfilled interactive slots.
func WithEmptySlots() SVGOption { return func(r *svgRenderer) { r.emptySlots = true } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: styles.Classic{}}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG renders a page as a standalone SVG document.
func RenderSVG(p layout.Page, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	pal := r.style.Palette()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		p.Width, p.Height, p.Width, p.Height)
	r.style.RenderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n", p.Width, p.Height, pal.Background)

	renderText(&buf, p.Title, pal.Text)
	if p.Description != nil {
		renderText(&buf, *p.Description, pal.Muted)
	}

	for _, c := range p.Cells {
		if !c.Filled {
			if r.emptySlots {
				fmt.Fprintf(&buf, `  <rect class="slot-empty" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-dasharray="4 4"/>`+"\n",
					c.Frame.X, c.Frame.Y, c.Frame.W, c.Frame.H, pal.Muted)
			}
			continue
		}
		r.renderCell(&buf, c, p.Scale, pal)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderCell(buf *bytes.Buffer, c layout.Cell, scale float64, pal styles.Palette) {
	if r.ids {
		fmt.Fprintf(buf, `  <g id="cell-%d" data-slot="%d" data-index="%d" data-diagram="%s">`+"\n",
			c.Slot, c.Slot, c.OriginalIndex, html.EscapeString(c.DiagramID))
	} else {
		buf.WriteString("  <g>\n")
	}

	frame := pal.Frame
	if c.Warning != "" {
		frame = pal.Warning
	}
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" fill="none" stroke="%s"/>`+"\n",
		c.Frame.X, c.Frame.Y, c.Frame.W, c.Frame.H, 4*scale, frame)

	if c.Title != nil {
		renderText(buf, *c.Title, pal.Text)
	}
	for _, l := range c.Strings {
		renderLine(buf, l, pal.Line, pal.LineWidth*scale)
	}
	for _, l := range c.Frets {
		if l.Nut {
			renderLine(buf, l, pal.Nut, pal.NutWidth*scale)
		} else {
			renderLine(buf, l, pal.Line, pal.LineWidth*scale)
		}
	}
	for _, t := range c.Labels {
		renderText(buf, t, pal.Muted)
	}
	hollowRoot := styles.HollowRoot(r.style)
	for _, m := range c.Marks {
		renderMark(buf, m, pal, pal.SymbolWidth*scale, hollowRoot)
	}
	if c.Warning != "" {
		renderWarning(buf, c, scale, pal)
	}
	buf.WriteString("  </g>\n")
}

func renderLine(buf *bytes.Buffer, l layout.Line, color string, width float64) {
	fmt.Fprintf(buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"/>`+"\n",
		l.X1, l.Y1, l.X2, l.Y2, color, width)
}

func renderText(buf *bytes.Buffer, t layout.Text, color string) {
	weight := ""
	if t.Bold {
		weight = ` font-weight="bold"`
	}
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.2f" text-anchor="%s" dominant-baseline="central" fill="%s"%s>%s</text>`+"\n",
		t.X, t.Y, t.Size, t.Anchor, color, weight, html.EscapeString(t.Value))
}

func renderMark(buf *bytes.Buffer, m layout.Mark, pal styles.Palette, sw float64, hollowRoot bool) {
	switch m.Kind {
	case layout.KindOpen:
		fmt.Fprintf(buf, `    <circle class="open" cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
			m.X, m.Y, m.R, pal.Symbol, sw/2)
	case layout.KindNote:
		fmt.Fprintf(buf, `    <circle class="note" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n", m.X, m.Y, m.R, pal.Note)
	case layout.KindRoot:
		if hollowRoot {
			fmt.Fprintf(buf, `    <circle class="root" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="%.2f"/>`+"\n",
				m.X, m.Y, m.R-sw/2, pal.Background, pal.Root, sw)
		} else {
			fmt.Fprintf(buf, `    <circle class="root" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n", m.X, m.Y, m.R, pal.Root)
		}
	case layout.KindSquare:
		side := m.R * 1.6
		fmt.Fprintf(buf, `    <rect class="square" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
			m.X-side/2, m.Y-side/2, side, side, pal.Symbol, sw)
	case layout.KindTriangle:
		pts := trianglePoints(m.X, m.Y, m.R)
		fmt.Fprintf(buf, `    <polygon class="triangle" points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
			pts[0], pts[1], pts[2], pts[3], pts[4], pts[5], pal.Symbol, sw)
	case layout.KindX:
		d := m.R * 0.7
		fmt.Fprintf(buf, `    <path class="x" d="M%.2f %.2f L%.2f %.2f M%.2f %.2f L%.2f %.2f" stroke="%s" stroke-width="%.2f"/>`+"\n",
			m.X-d, m.Y-d, m.X+d, m.Y+d, m.X-d, m.Y+d, m.X+d, m.Y-d, pal.Symbol, sw)
	}
}

func renderWarning(buf *bytes.Buffer, c layout.Cell, scale float64, pal styles.Palette) {
	h := 14 * scale
	fmt.Fprintf(buf, `    <rect class="warning" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" opacity="0.85"/>`+"\n",
		c.Frame.X, c.Frame.Y+c.Frame.H-h, c.Frame.W, h, pal.Warning)
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.2f" text-anchor="middle" dominant-baseline="central" fill="%s">%s</text>`+"\n",
		c.Frame.X+c.Frame.W/2, c.Frame.Y+c.Frame.H-h/2, 9*scale, pal.WarnText, html.EscapeString(c.Warning))
}

// trianglePoints returns an upward equilateral triangle inscribed in the
// circle of radius r around (x, y), as x0,y0,x1,y1,x2,y2.
func trianglePoints(x, y, r float64) [6]float64 {
	dx := r * math.Sqrt(3) / 2
	return [6]float64{x, y - r, x + dx, y + r/2, x - dx, y + r/2}
}
