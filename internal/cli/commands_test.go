package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// testEnv points the CLI at a throwaway file store with caching off.
type testEnv struct {
	t      *testing.T
	dir    string
	config string
	st     *store.FileStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FRETSHEET_STORE", "file")
	t.Setenv("FRETSHEET_STORE_DIR", filepath.Join(dir, "sheets"))
	t.Setenv("FRETSHEET_CACHE", "none")

	st, err := store.NewFileStore(filepath.Join(dir, "sheets"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return &testEnv{t: t, dir: dir, config: filepath.Join(dir, "config.toml"), st: st}
}

func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) mustRun(args ...string) {
	e.t.Helper()
	if err := e.run(args...); err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
}

// onlySheet returns the single stored sheet.
func (e *testEnv) onlySheet() *sheet.Sheet {
	e.t.Helper()
	ctx := context.Background()
	sums, err := e.st.List(ctx)
	if err != nil {
		e.t.Fatalf("List() error: %v", err)
	}
	if len(sums) != 1 {
		e.t.Fatalf("store holds %d sheets, want 1", len(sums))
	}
	s, err := e.st.Get(ctx, sums[0].ID)
	if err != nil {
		e.t.Fatalf("Get() error: %v", err)
	}
	return s
}

func TestDiagramCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("new", "Open Chords", "--grid", "2x1-6-fret")
	id := env.onlySheet().ID

	env.mustRun("add", id, "--title", "E", "--root", "0-open", "--note", "1-1,2-1", "--open", "5")
	s := env.onlySheet()
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	d := s.Diagrams[0]
	if d.Title != "E" || d.FretCount != diagram.SixFrets || d.StringCount != diagram.SixStrings {
		t.Errorf("added diagram = %q %dx%d, want E 6x6", d.Title, d.StringCount, d.FretCount)
	}
	if !d.Has(diagram.Open(0), diagram.Root) || !d.Has(diagram.Fretted(2, 1), diagram.Note) {
		t.Errorf("markers = %v, want root at 0-open and note at 2-1", d.Markers)
	}
	if got := d.OpenStringList(); len(got) != 2 || got[0] != 0 || got[1] != 5 {
		t.Errorf("OpenStringList() = %v, want [0 5]", got)
	}

	env.mustRun("set", id, "1", "--unset", "1-1", "--label", "0=3", "--close", "5")
	d = env.onlySheet().Diagrams[0]
	if !d.MarkersAt(diagram.Fretted(1, 1)).Empty() {
		t.Error("set --unset left markers at 1-1")
	}
	if d.FretLabels[0] != 3 {
		t.Errorf("FretLabels[0] = %d, want 3", d.FretLabels[0])
	}
	if d.IsOpen(5) {
		t.Error("set --close left string 5 open")
	}

	if err := env.run("add", id, "--note", "6-1"); !errors.Is(err, errors.ErrCodeInvalidDiagram) {
		t.Errorf("out-of-bounds add error = %v, want %s", err, errors.ErrCodeInvalidDiagram)
	}
	if err := env.run("add", id, "--frets", "12"); !errors.Is(err, errors.ErrCodeIncompatible) {
		t.Errorf("12-fret add error = %v, want incompatible", err)
	}
	if env.onlySheet().Len() != 1 {
		t.Fatal("rejected adds changed the sheet")
	}

	env.mustRun("add", id, "--title", "A")
	if err := env.run("add", id); !errors.Is(err, errors.ErrCodeGridFull) {
		t.Errorf("add to full grid error = %v, want %s", err, errors.ErrCodeGridFull)
	}

	if err := env.run("remove", id, "3"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("remove 3 error = %v, want %s", err, errors.ErrCodeNotFound)
	}
	env.mustRun("remove", id, "1")
	if s := env.onlySheet(); s.Len() != 1 || s.Diagrams[0].Title != "A" {
		t.Errorf("after remove: %d diagrams, want only A", s.Len())
	}

	if err := env.run("clear", id); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("clear without --yes error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	env.mustRun("clear", id, "--yes")
	if s := env.onlySheet(); s.Len() != 0 || s.Title != "Open Chords" {
		t.Errorf("after clear: %d diagrams, title %q", s.Len(), s.Title)
	}
}

func TestGridCommandKeepsHiddenDiagrams(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("new", "Scales")
	id := env.onlySheet().ID
	env.mustRun("add", id, "--title", "one")
	env.mustRun("add", id, "--title", "two")

	env.mustRun("grid", id, "2x1-12-fret")
	s := env.onlySheet()
	if want := (grid.Config{Rows: 1, Cols: 2, Class: grid.TwelveFret}); s.Grid != want {
		t.Errorf("Grid = %+v, want %+v", s.Grid, want)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (switching grids never drops diagrams)", s.Len())
	}
	if err := env.run("grid", id, "13x1-6-fret"); !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("oversized grid error = %v, want %s", err, errors.ErrCodeInvalidGrid)
	}
}

func TestSheetCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("new")
	s := env.onlySheet()
	if s.Title != sheet.DefaultTitle {
		t.Errorf("Title = %q, want %q", s.Title, sheet.DefaultTitle)
	}

	env.mustRun("title", s.ID, "Jazz Voicings", "-d", "Drop 2")
	s = env.onlySheet()
	if s.Title != "Jazz Voicings" || s.Description != "Drop 2" {
		t.Errorf("title/description = %q/%q", s.Title, s.Description)
	}

	env.mustRun("list")
	env.mustRun("show", s.ID)

	env.mustRun("duplicate", s.ID)
	sums, _ := env.st.List(context.Background())
	if len(sums) != 2 {
		t.Fatalf("after duplicate: %d sheets, want 2", len(sums))
	}

	for _, sum := range sums {
		env.mustRun("delete", sum.ID)
	}
	if err := env.run("show", s.ID); !errors.Is(err, errors.ErrCodeSheetNotFound) {
		t.Errorf("show deleted sheet error = %v, want %s", err, errors.ErrCodeSheetNotFound)
	}
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("new", "Open Chords")
	id := env.onlySheet().ID
	env.mustRun("add", id, "--title", "E", "--root", "0-open")

	out := filepath.Join(env.dir, "chords")
	env.mustRun("export", id, "-f", "svg,json", "-o", out)
	for _, ext := range []string{".svg", ".json"} {
		info, err := os.Stat(out + ext)
		if err != nil {
			t.Errorf("export did not write %s: %v", out+ext, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", out+ext)
		}
	}

	if err := env.run("export", id, "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("gif export error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
	if err := env.run("export", id, "-f", "svg,pdf", "-o", "-"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("stdout with two formats error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if err := env.run("slots", id, "--mode", "export"); err != nil {
		t.Errorf("slots: %v", err)
	}
}
