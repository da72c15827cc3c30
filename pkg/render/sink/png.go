package sink

import (
	"bytes"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/render/layout"
	"github.com/matzehuels/fretsheet/pkg/render/styles"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	style      styles.Style
	scale      float64
	emptySlots bool
}

// WithPNGStyle sets the visual style (default [styles.Classic]).
func WithPNGStyle(s styles.Style) PNGOption { return func(r *pngRenderer) { r.style = s } }

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithPNGEmptySlots draws dashed outlines for unfilled interactive slots.
func WithPNGEmptySlots() PNGOption { return func(r *pngRenderer) { r.emptySlots = true } }

var loadFonts = sync.OnceValues(func() ([2]*truetype.Font, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return [2]*truetype.Font{}, err
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return [2]*truetype.Font{}, err
	}
	return [2]*truetype.Font{regular, bold}, nil
})

// RenderPNG rasterises a page with gg. Unlike PDF it needs no external tool.
func RenderPNG(p layout.Page, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{style: styles.Classic{}, scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsNaN(r.scale) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %v", r.scale)
	}
	fonts, err := loadFonts()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load fonts")
	}

	w := int(math.Ceil(p.Width * r.scale))
	h := int(math.Ceil(p.Height * r.scale))
	pc := &pngCanvas{
		dc:    gg.NewContext(w, h),
		s:     r.scale,
		pal:   r.style.Palette(),
		fonts: fonts,
		faces: map[faceKey]font.Face{},
	}
	pc.dc.SetHexColor(pc.pal.Background)
	pc.dc.Clear()

	pc.text(p.Title, pc.pal.Text)
	if p.Description != nil {
		pc.text(*p.Description, pc.pal.Muted)
	}
	hollowRoot := styles.HollowRoot(r.style)
	for _, c := range p.Cells {
		if !c.Filled {
			if r.emptySlots {
				pc.dc.SetDash(4*r.scale, 4*r.scale)
				pc.rect(c.Frame, pc.pal.Muted, 1)
				pc.dc.SetDash()
			}
			continue
		}
		pc.cell(c, p.Scale, hollowRoot)
	}

	var buf bytes.Buffer
	if err := pc.dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

type faceKey struct {
	size float64
	bold bool
}

// pngCanvas draws page coordinates onto a context of s device pixels per
// page pixel.
type pngCanvas struct {
	dc    *gg.Context
	s     float64
	pal   styles.Palette
	fonts [2]*truetype.Font
	faces map[faceKey]font.Face
}

func (pc *pngCanvas) face(size float64, bold bool) font.Face {
	k := faceKey{size: size, bold: bold}
	if f, ok := pc.faces[k]; ok {
		return f
	}
	ttf := pc.fonts[0]
	if bold {
		ttf = pc.fonts[1]
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size * pc.s, Hinting: font.HintingFull})
	pc.faces[k] = f
	return f
}

func (pc *pngCanvas) cell(c layout.Cell, scale float64, hollowRoot bool) {
	frame := pc.pal.Frame
	if c.Warning != "" {
		frame = pc.pal.Warning
	}
	pc.dc.DrawRoundedRectangle(c.Frame.X*pc.s, c.Frame.Y*pc.s, c.Frame.W*pc.s, c.Frame.H*pc.s, 4*scale*pc.s)
	pc.stroke(frame, 1)

	if c.Title != nil {
		pc.text(*c.Title, pc.pal.Text)
	}
	for _, l := range c.Strings {
		pc.line(l, pc.pal.Line, pc.pal.LineWidth*scale)
	}
	for _, l := range c.Frets {
		if l.Nut {
			pc.line(l, pc.pal.Nut, pc.pal.NutWidth*scale)
		} else {
			pc.line(l, pc.pal.Line, pc.pal.LineWidth*scale)
		}
	}
	for _, t := range c.Labels {
		pc.text(t, pc.pal.Muted)
	}
	for _, m := range c.Marks {
		pc.mark(m, pc.pal.SymbolWidth*scale, hollowRoot)
	}
	if c.Warning != "" {
		h := 14 * scale
		band := layout.Rect{X: c.Frame.X, Y: c.Frame.Y + c.Frame.H - h, W: c.Frame.W, H: h}
		pc.dc.DrawRectangle(band.X*pc.s, band.Y*pc.s, band.W*pc.s, band.H*pc.s)
		pc.fill(pc.pal.Warning)
		pc.text(layout.Text{
			X: band.X + band.W/2, Y: band.Y + h/2, Size: 9 * scale, Anchor: "middle", Value: c.Warning,
		}, pc.pal.WarnText)
	}
}

func (pc *pngCanvas) mark(m layout.Mark, sw float64, hollowRoot bool) {
	s := pc.s
	x, y, r := m.X*s, m.Y*s, m.R*s
	switch m.Kind {
	case layout.KindOpen:
		pc.dc.DrawCircle(x, y, r)
		pc.stroke(pc.pal.Symbol, sw/2)
	case layout.KindNote:
		pc.dc.DrawCircle(x, y, r)
		pc.fill(pc.pal.Note)
	case layout.KindRoot:
		if hollowRoot {
			pc.dc.DrawCircle(x, y, r-sw*s/2)
			pc.fill(pc.pal.Background)
			pc.dc.DrawCircle(x, y, r-sw*s/2)
			pc.stroke(pc.pal.Root, sw)
		} else {
			pc.dc.DrawCircle(x, y, r)
			pc.fill(pc.pal.Root)
		}
	case layout.KindSquare:
		side := r * 1.6
		pc.dc.DrawRectangle(x-side/2, y-side/2, side, side)
		pc.stroke(pc.pal.Symbol, sw)
	case layout.KindTriangle:
		pts := trianglePoints(x, y, r)
		pc.dc.MoveTo(pts[0], pts[1])
		pc.dc.LineTo(pts[2], pts[3])
		pc.dc.LineTo(pts[4], pts[5])
		pc.dc.ClosePath()
		pc.stroke(pc.pal.Symbol, sw)
	case layout.KindX:
		d := r * 0.7
		pc.dc.DrawLine(x-d, y-d, x+d, y+d)
		pc.dc.DrawLine(x-d, y+d, x+d, y-d)
		pc.stroke(pc.pal.Symbol, sw)
	}
}

func (pc *pngCanvas) line(l layout.Line, color string, width float64) {
	pc.dc.DrawLine(l.X1*pc.s, l.Y1*pc.s, l.X2*pc.s, l.Y2*pc.s)
	pc.stroke(color, width)
}

func (pc *pngCanvas) rect(r layout.Rect, color string, width float64) {
	pc.dc.DrawRectangle(r.X*pc.s, r.Y*pc.s, r.W*pc.s, r.H*pc.s)
	pc.stroke(color, width)
}

func (pc *pngCanvas) text(t layout.Text, color string) {
	pc.dc.SetFontFace(pc.face(t.Size, t.Bold))
	pc.dc.SetHexColor(color)
	ax := 0.0
	switch t.Anchor {
	case "middle":
		ax = 0.5
	case "end":
		ax = 1
	}
	pc.dc.DrawStringAnchored(t.Value, t.X*pc.s, t.Y*pc.s, ax, 0.35)
}

// stroke strokes the current path; width is in page pixels.
func (pc *pngCanvas) stroke(color string, width float64) {
	pc.dc.SetHexColor(color)
	pc.dc.SetLineWidth(width * pc.s)
	pc.dc.Stroke()
}

func (pc *pngCanvas) fill(color string) {
	pc.dc.SetHexColor(color)
	pc.dc.Fill()
}
