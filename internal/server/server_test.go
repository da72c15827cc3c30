package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fretsheet/pkg/cache"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/observability"
	"github.com/matzehuels/fretsheet/pkg/pipeline"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := New(st, pipeline.NewRunner(c, nil, logger), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createSheet(t *testing.T, ts *httptest.Server, body string) sheet.Record {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/api/sheets", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/sheets status = %d, want 201", resp.StatusCode)
	}
	return decode[sheet.Record](t, resp)
}

const chordE = `{"title":"E","stringCount":6,"fretCount":6,"rootNotes":["0-1"],"notes":["3-1","4-2"],"openStrings":[5]}`

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, ts, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestSheetCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	rec := createSheet(t, ts, "")
	if rec.ID == "" || rec.Title != sheet.DefaultTitle {
		t.Fatalf("created = %+v", rec)
	}
	if rec.GridRows != 4 || rec.GridCols != 4 || rec.GridType != "6-fret" {
		t.Errorf("default grid = %dx%d %s", rec.GridCols, rec.GridRows, rec.GridType)
	}

	list := decode[[]store.Summary](t, do(t, ts, http.MethodGet, "/api/sheets", ""))
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Errorf("list = %+v", list)
	}

	resp := do(t, ts, http.MethodPut, "/api/sheets/"+rec.ID, `{"title":"Jazz","gridRows":2,"gridCols":3,"diagramTypeClass":"6-fret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	got := decode[sheet.Record](t, do(t, ts, http.MethodGet, "/api/sheets/"+rec.ID, ""))
	if got.Title != "Jazz" || got.GridCols != 3 || got.ID != rec.ID {
		t.Errorf("GET after PUT = %+v", got)
	}

	if resp := do(t, ts, http.MethodDelete, "/api/sheets/"+rec.ID, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}
	if resp := do(t, ts, http.MethodGet, "/api/sheets/"+rec.ID, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateSheetRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"malformed json", `{"title":`, errors.ErrCodeInvalidInput},
		{"bad grid", `{"title":"x","gridRows":-1,"gridCols":2}`, errors.ErrCodeInvalidGrid},
		{"oversized grid", `{"title":"x","gridRows":50000,"gridCols":50000}`, errors.ErrCodeInvalidGrid},
		{"one row too many", `{"title":"x","gridRows":13,"gridCols":1}`, errors.ErrCodeInvalidGrid},
		{"bad diagram", `{"title":"x","diagrams":[{"stringCount":5}]}`, errors.ErrCodeInvalidDiagram},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodPost, "/api/sheets", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			body := decode[errorBody](t, resp)
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestPutSheetRejectsOversizedGrid(t *testing.T) {
	ts, _ := newTestServer(t)
	rec := createSheet(t, ts, `{"title":"Small","gridRows":2,"gridCols":2}`)

	resp := do(t, ts, http.MethodPut, "/api/sheets/"+rec.ID, `{"title":"Big","gridRows":50000,"gridCols":50000}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("PUT status = %d, want 400", resp.StatusCode)
	}
	if body := decode[errorBody](t, resp); body.Error.Code != errors.ErrCodeInvalidGrid {
		t.Errorf("code = %s, want %s", body.Error.Code, errors.ErrCodeInvalidGrid)
	}
	got := decode[sheet.Record](t, do(t, ts, http.MethodGet, "/api/sheets/"+rec.ID, ""))
	if got.Title != "Small" || got.GridRows != 2 || got.GridCols != 2 {
		t.Errorf("stored sheet changed: %+v", got)
	}
}

func TestDiagramLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	rec := createSheet(t, ts, `{"title":"Tiny","gridRows":1,"gridCols":1,"diagramTypeClass":"6-fret"}`)
	base := "/api/sheets/" + rec.ID

	resp := do(t, ts, http.MethodPost, base+"/diagrams", chordE)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d, want 201", resp.StatusCode)
	}
	added := decode[diagramResponse](t, resp)
	if added.Index != 0 || added.Diagram.ID == "" {
		t.Errorf("added = %+v", added)
	}

	// A 1x1 grid holds one compatible diagram.
	resp = do(t, ts, http.MethodPost, base+"/diagrams", chordE)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("add to full grid status = %d, want 409", resp.StatusCode)
	}
	if body := decode[errorBody](t, resp); body.Error.Code != errors.ErrCodeGridFull {
		t.Errorf("code = %s, want GRID_FULL", body.Error.Code)
	}

	resp = do(t, ts, http.MethodPost, base+"/diagrams", `{"title":"Long","stringCount":6,"fretCount":12}`)
	if body := decode[errorBody](t, resp); body.Error.Code != errors.ErrCodeIncompatible {
		t.Errorf("add 12-fret code = %s, want INCOMPATIBLE_DIAGRAM", body.Error.Code)
	}

	resp = do(t, ts, http.MethodPut, base+"/diagrams/0", `{"title":"E7","stringCount":6,"fretCount":6,"notes":["2-1"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace status = %d", resp.StatusCode)
	}
	replaced := decode[diagramResponse](t, resp)
	if replaced.Diagram.ID != added.Diagram.ID || replaced.Diagram.Title != "E7" {
		t.Errorf("replace should keep ID and update title, got %+v", replaced.Diagram)
	}

	if resp := do(t, ts, http.MethodDelete, base+"/diagrams/3", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("remove out of range status = %d, want 404", resp.StatusCode)
	}
	if resp := do(t, ts, http.MethodDelete, base+"/diagrams/x", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("remove bad index status = %d, want 400", resp.StatusCode)
	}
	got := decode[sheet.Record](t, do(t, ts, http.MethodDelete, base+"/diagrams/0", ""))
	if len(got.Diagrams) != 0 {
		t.Errorf("diagrams after remove = %d, want 0", len(got.Diagrams))
	}
}

func TestGridSwitchKeepsDiagrams(t *testing.T) {
	ts, _ := newTestServer(t)
	rec := createSheet(t, ts, `{"title":"Mixed","gridRows":2,"gridCols":2,"diagramTypeClass":"6-fret",
		"diagrams":[{"title":"A","fretCount":6},{"title":"B","fretCount":6},{"title":"C","fretCount":6}]}`)

	resp := do(t, ts, http.MethodPut, "/api/sheets/"+rec.ID+"/grid", `{"selection":"4x4-12-fret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grid status = %d", resp.StatusCode)
	}
	body := decode[gridResponse](t, resp)
	if len(body.Sheet.Diagrams) != 3 {
		t.Errorf("diagrams = %d, want 3", len(body.Sheet.Diagrams))
	}
	if len(body.Warnings) != 1 || !strings.Contains(body.Warnings[0], "3 diagram(s)") {
		t.Errorf("warnings = %v", body.Warnings)
	}

	resp = do(t, ts, http.MethodPut, "/api/sheets/"+rec.ID+"/grid", `{"selection":"banana"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad selection status = %d, want 400", resp.StatusCode)
	}
}

func TestSlots(t *testing.T) {
	ts, _ := newTestServer(t)
	rec := createSheet(t, ts, `{"title":"Slots","gridRows":1,"gridCols":2,"diagramTypeClass":"6-fret",
		"diagrams":[{"title":"A","fretCount":12,"positionInSheet":0},{"title":"B","fretCount":6,"positionInSheet":1}]}`)

	interactive := decode[slotsResponse](t, do(t, ts, http.MethodGet, "/api/sheets/"+rec.ID+"/slots", ""))
	if len(interactive.Slots) != 2 {
		t.Fatalf("interactive slots = %d, want 2", len(interactive.Slots))
	}
	if first := interactive.Slots[0]; !first.Filled || first.OriginalIndex != 1 || first.Diagram.Title != "B" {
		t.Errorf("first interactive slot = %+v", first)
	}
	if interactive.Slots[1].Filled || interactive.Slots[1].OriginalIndex != -1 {
		t.Errorf("second interactive slot = %+v, want empty", interactive.Slots[1])
	}
	if interactive.Incompatible != 1 {
		t.Errorf("incompatible = %d, want 1", interactive.Incompatible)
	}

	export := decode[slotsResponse](t, do(t, ts, http.MethodGet, "/api/sheets/"+rec.ID+"/slots?mode=export", ""))
	if len(export.Slots) != 2 || export.Slots[0].Compatible || !export.Slots[1].Compatible {
		t.Errorf("export slots = %+v", export.Slots)
	}

	if resp := do(t, ts, http.MethodGet, "/api/sheets/"+rec.ID+"/slots?mode=sideways", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad mode status = %d, want 400", resp.StatusCode)
	}
}

func TestExport(t *testing.T) {
	ts, _ := newTestServer(t)
	rec := createSheet(t, ts, `{"title":"Open Chords","diagrams":[`+chordE+`]}`)
	path := "/api/sheets/" + rec.ID + "/export.svg"

	resp := do(t, ts, http.MethodGet, path, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="open-chords.svg"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("first export X-Cache = %q, want miss", resp.Header.Get("X-Cache"))
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("<svg")) {
		t.Errorf("body does not start with <svg: %.40s", data)
	}

	if again := do(t, ts, http.MethodGet, path, ""); again.Header.Get("X-Cache") != "hit" {
		t.Errorf("second export X-Cache = %q, want hit", again.Header.Get("X-Cache"))
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/api/sheets/" + rec.ID + "/export.gif", http.StatusBadRequest},
		{"/api/sheets/" + rec.ID + "/export.svg?style=neon", http.StatusBadRequest},
		{"/api/sheets/" + rec.ID + "/export.png?scale=abc", http.StatusBadRequest},
		{"/api/sheets/missing/export.svg", http.StatusNotFound},
	}
	for _, tt := range tests {
		if resp := do(t, ts, http.MethodGet, tt.path, ""); resp.StatusCode != tt.status {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.status)
		}
	}
}

func TestDuplicate(t *testing.T) {
	ts, _ := newTestServer(t)
	rec := createSheet(t, ts, `{"title":"Riffs","diagrams":[`+chordE+`]}`)

	resp := do(t, ts, http.MethodPost, "/api/sheets/"+rec.ID+"/duplicate", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("duplicate status = %d", resp.StatusCode)
	}
	dup := decode[sheet.Record](t, resp)
	if dup.ID == rec.ID || dup.Title != "Copy of Riffs" {
		t.Errorf("duplicate = %q %q", dup.ID, dup.Title)
	}
	if len(dup.Diagrams) != 1 || dup.Diagrams[0].ID == rec.Diagrams[0].ID {
		t.Error("duplicate should copy diagrams with fresh IDs")
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	errs   int
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func (h *recordingHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs++
}

func TestHooksUseRoutePattern(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts, _ := newTestServer(t)
	do(t, ts, http.MethodGet, "/api/sheets/abc/slots", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 1 || hooks.routes[0] != "GET /api/sheets/{id}/slots" {
		t.Errorf("routes = %v", hooks.routes)
	}
	if hooks.errs != 1 {
		t.Errorf("errors = %d, want 1", hooks.errs)
	}
}
