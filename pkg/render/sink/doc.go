// Package sink paints a [layout.Page] into an output format.
//
//   - [RenderSVG]: standalone SVG, optionally with per-cell ids for browsers
//   - [RenderPNG]: raster output drawn with gg, no external tools needed
//   - [RenderPDF]: SVG converted by rsvg-convert
//   - [RenderJSON]: the page description itself
//
// Every sink takes functional options and defaults to [styles.Classic]:
//
//	svg := sink.RenderSVG(page, sink.WithStyle(styles.Ink{}), sink.WithIDs())
//	png, err := sink.RenderPNG(page, sink.WithScale(3))
//
// [styles.Classic]: github.com/matzehuels/fretsheet/pkg/render/styles.Classic
package sink
