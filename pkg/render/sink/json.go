package sink

import (
	"encoding/json"

	"github.com/matzehuels/fretsheet/pkg/render/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	style   string
	sheetID string
	indent  bool
}

// WithJSONStyle records the style name in the output so a front end can pick
// matching colours.
func WithJSONStyle(s string) JSONOption { return func(r *jsonRenderer) { r.style = s } }

// WithJSONSheet records the source sheet's ID.
func WithJSONSheet(id string) JSONOption { return func(r *jsonRenderer) { r.sheetID = id } }

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	SheetID string `json:"sheetId,omitempty"`
	Style   string `json:"style,omitempty"`
	layout.Page
}

// RenderJSON serialises the page description.
func RenderJSON(p layout.Page, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{SheetID: r.sheetID, Style: r.style, Page: p}
	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// ParseJSON reads a page written by [RenderJSON].
func ParseJSON(data []byte) (layout.Page, error) {
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return layout.Page{}, err
	}
	return out.Page, nil
}
