package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/fretsheet/pkg/cache"
	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		style   string
		wantErr bool
	}{
		{"classic", false},
		{"ink", false},
		{"handdrawn", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
	}
}

func TestValidateScale(t *testing.T) {
	for _, scale := range []float64{-1, 0, MaxScale + 1} {
		if err := ValidateScale(scale); err == nil {
			t.Errorf("ValidateScale(%v) should fail", scale)
		}
	}
	if err := ValidateScale(1); err != nil {
		t.Errorf("ValidateScale(1) error: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	got := ParseFormats(" SVG, png,,svg ,pdf")
	want := []string{"svg", "png", "pdf"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ParseFormats() = %v, want %v", got, want)
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Style != DefaultStyle {
		t.Errorf("Style should be %s, got %s", DefaultStyle, opts.Style)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %v, got %v", DefaultScale, opts.Scale)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Formats: []string{"png"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	style, scale := opts.Style, opts.Scale
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Style != style || opts.Scale != scale {
		t.Error("defaults changed on second call")
	}
}

func TestArtifactKeyOptsScaleOnlyForPNG(t *testing.T) {
	a := Options{Style: "classic", Scale: 2}
	b := Options{Style: "classic", Scale: 3}
	if a.ArtifactKeyOpts(FormatSVG) != b.ArtifactKeyOpts(FormatSVG) {
		t.Error("svg keys should not depend on scale")
	}
	if a.ArtifactKeyOpts(FormatPNG) == b.ArtifactKeyOpts(FormatPNG) {
		t.Error("png keys should depend on scale")
	}
}

func testSheet(t *testing.T) *sheet.Sheet {
	t.Helper()
	s := sheet.New()
	s.ID = "warmups"
	d := diagram.New("E", 6, 6)
	d = diagram.SetMarker(d, diagram.Fretted(1, 1), diagram.Note, true)
	if _, err := s.Add(d); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSheetHashIgnoresUpdatedAt(t *testing.T) {
	s := testSheet(t)
	h1, err := SheetHash(s)
	if err != nil {
		t.Fatal(err)
	}
	s.UpdatedAt = time.Now()
	h2, _ := SheetHash(s)
	if h1 != h2 {
		t.Error("SheetHash should not depend on UpdatedAt")
	}
	s.Title = "other"
	if h3, _ := SheetHash(s); h3 == h1 {
		t.Error("SheetHash should change with content")
	}
}

func TestMarshalPageRoundTrip(t *testing.T) {
	page := GenerateLayout(context.Background(), testSheet(t), Options{Mode: grid.ExportPreview})
	data, err := MarshalPage(page)
	if err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalPage(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.Mode != page.Mode || len(back.Cells) != len(page.Cells) || back.Scale != page.Scale {
		t.Errorf("UnmarshalPage() = %s/%d cells, want %s/%d", back.Mode, len(back.Cells), page.Mode, len(page.Cells))
	}
	if len(back.Cells[0].Marks) != len(page.Cells[0].Marks) {
		t.Error("marks lost in round trip")
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	opts := Options{Mode: grid.ExportPreview, Formats: []string{"svg", "json", "png"}, Scale: 1}
	first, err := r.Execute(ctx, testSheet(t), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	for _, f := range opts.Formats {
		if len(first.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if !bytes.HasPrefix(first.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact is not svg")
	}

	second, err := r.Execute(ctx, testSheet(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, testSheet(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestRunnerExecuteRejectsBadOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), testSheet(t), Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Execute() error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sheet.json")
	rec := `{"title":"Imported","gridRows":1,"gridCols":2,"diagramTypeClass":"12-fret",
		"diagrams":[{"title":"A","stringCount":6,"fretCount":12,"notes":["0-11"],"positionInSheet":0}]}`
	if err := os.WriteFile(path, []byte(rec), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(ctx, nil, path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Title != "Imported" || s.Grid.Class != grid.TwelveFret || s.Len() != 1 {
		t.Errorf("Load() = %q %v %d diagrams", s.Title, s.Grid, s.Len())
	}

	if _, err := Load(ctx, nil, "some-id"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load(id) without store error = %v, want INVALID_INPUT", err)
	}
	if _, err := ReadRecord(strings.NewReader("{")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ReadRecord(bad json) error = %v, want INVALID_INPUT", err)
	}
}
