package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/fretsheet/pkg/observability"
	"github.com/matzehuels/fretsheet/pkg/render/layout"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

// GenerateLayout allocates the sheet's diagrams for opts.Mode and positions
// the page.
func GenerateLayout(ctx context.Context, s *sheet.Sheet, opts Options) layout.Page {
	hooks := observability.Pipeline()
	mode := opts.Mode.String()
	hooks.OnLayoutStart(ctx, mode, s.Len())
	start := time.Now()

	page := layout.Build(s, opts.Mode)

	hooks.OnAllocate(ctx, mode, len(page.Cells), page.Overflow)
	hooks.OnLayoutComplete(ctx, mode, time.Since(start), nil)
	return page
}

// MarshalPage encodes a page for the layout cache. Field names follow the
// page's JSON tags so cached and served layouts read the same.
func MarshalPage(p layout.Page) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalPage decodes a page written by [MarshalPage].
func UnmarshalPage(data []byte) (layout.Page, error) {
	var p layout.Page
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&p); err != nil {
		return layout.Page{}, err
	}
	return p, nil
}
