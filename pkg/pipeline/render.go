package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/observability"
	"github.com/matzehuels/fretsheet/pkg/render/layout"
	"github.com/matzehuels/fretsheet/pkg/render/sink"
)

// Render generates output artifacts in the requested formats. Formats are
// rendered concurrently; the first failure cancels the rest.
func Render(ctx context.Context, p layout.Page, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return renderFormats(ctx, p, opts, opts.Formats)
}

func renderFormats(ctx context.Context, p layout.Page, opts Options, formats []string) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(formats))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultParallelism)
	for _, format := range formats {
		g.Go(func() error {
			data, err := renderFormat(gctx, p, opts, format)
			if err != nil {
				return err
			}
			opts.Logger.Debug("rendered format", "format", format, "bytes", len(data))
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, p layout.Page, opts Options, format string) ([]byte, error) {
	style := opts.StyleValue()
	svgOpts := []sink.SVGOption{sink.WithStyle(style)}
	if opts.IDs {
		svgOpts = append(svgOpts, sink.WithIDs())
	}
	if opts.EmptySlots {
		svgOpts = append(svgOpts, sink.WithEmptySlots())
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data = sink.RenderSVG(p, svgOpts...)
	case FormatPNG:
		pngOpts := []sink.PNGOption{sink.WithPNGStyle(style), sink.WithScale(opts.Scale)}
		if opts.EmptySlots {
			pngOpts = append(pngOpts, sink.WithPNGEmptySlots())
		}
		data, err = sink.RenderPNG(p, pngOpts...)
	case FormatPDF:
		data, err = sink.RenderPDF(ctx, p, sink.WithPDFSVGOptions(svgOpts...))
	case FormatJSON:
		data, err = sink.RenderJSON(p, sink.WithJSONStyle(style.Name()))
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return data, nil
}
