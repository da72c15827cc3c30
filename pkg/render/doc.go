// Package render turns chord sheets into output files.
//
// # Overview
//
// Rendering happens in two steps. The [layout] subpackage positions every
// fretboard, label and marker on a page for a display mode, and the [sink]
// subpackage paints a finished page into one format:
//
//   - SVG: vector output, also the input for PDF conversion
//   - PNG: raster output drawn directly with gg
//   - PDF: print-ready output (requires rsvg-convert)
//   - JSON: the page description itself, for external front ends
//
// Colours and stroke widths come from the [styles] subpackage.
//
// # Format Conversion
//
// [ToPDF] converts any SVG using the external rsvg-convert tool from librsvg.
// PNG never goes through it; [Available] reports whether PDF export works on
// this machine:
//
//	svg := sink.RenderSVG(page)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [layout]: github.com/matzehuels/fretsheet/pkg/render/layout
// [sink]: github.com/matzehuels/fretsheet/pkg/render/sink
// [styles]: github.com/matzehuels/fretsheet/pkg/render/styles
package render
