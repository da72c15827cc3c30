package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/fretsheet/pkg/buildinfo"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/pipeline"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/spacing"
	"github.com/matzehuels/fretsheet/pkg/store"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

// =============================================================================
// Sheets
// =============================================================================

func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateSheet stores a new sheet. The body is an optional sheet record;
// an empty body creates an untitled sheet with the default grid.
func (s *Server) handleCreateSheet(w http.ResponseWriter, r *http.Request) {
	var rec *sheet.Record
	if err := decodeJSON(r, &rec, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	sh := sheet.New()
	if rec != nil {
		rec.ID = ""
		if rec.Title == "" {
			rec.Title = sh.Title
		}
		var err error
		if sh, err = sheet.FromRecord(*rec); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := errors.ValidateTitle(sh.Title); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sheet.ToRecord(sh))
}

func (s *Server) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sheet.ToRecord(sh))
}

// handlePutSheet replaces a stored sheet with the request record. The sheet
// must already exist; the URL ID wins over any ID in the body.
func (s *Server) handlePutSheet(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.load(w, r); !ok {
		return
	}
	var rec sheet.Record
	if err := decodeJSON(r, &rec, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	sh, err := sheet.FromRecord(rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errors.ValidateTitle(sh.Title); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.saveAndRespond(w, r, sh, http.StatusOK)
}

func (s *Server) handleDeleteSheet(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateSheet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	dup, err := store.Duplicate(r.Context(), s.store, chi.URLParam(r, "id"), strings.TrimSpace(req.Title))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sheet.ToRecord(dup))
}

// =============================================================================
// Grid and slots
// =============================================================================

type gridRequest struct {
	Selection string `json:"selection"`
}

type gridResponse struct {
	Sheet    sheet.Record `json:"sheet"`
	Warnings []string     `json:"warnings"`
}

// handleSetGrid switches the grid. Diagrams the new grid hides are kept and
// reported as warnings.
func (s *Server) handleSetGrid(w http.ResponseWriter, r *http.Request) {
	var req gridRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	sh, ok := s.load(w, r)
	if !ok {
		return
	}
	change, err := sh.SelectGrid(req.Selection)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	warnings := change.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, gridResponse{Sheet: sheet.ToRecord(sh), Warnings: warnings})
}

type slotView struct {
	Slot          int                  `json:"slot"`
	Filled        bool                 `json:"filled"`
	Compatible    bool                 `json:"compatible"`
	OriginalIndex int                  `json:"originalIndex"`
	Diagram       *sheet.DiagramRecord `json:"diagram,omitempty"`
}

type slotsResponse struct {
	Mode         string          `json:"mode"`
	Grid         string          `json:"grid"`
	Slots        []slotView      `json:"slots"`
	Overflow     int             `json:"overflow"`
	Incompatible int             `json:"incompatible"`
	Profile      spacing.Profile `json:"profile"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	mode, err := grid.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "mode"))
		return
	}
	sh, ok := s.load(w, r)
	if !ok {
		return
	}

	a := sh.Allocate(mode)
	resp := slotsResponse{
		Mode:         mode.String(),
		Grid:         grid.Selection(sh.Grid),
		Slots:        make([]slotView, 0, len(a.Slots)),
		Overflow:     a.Overflow(),
		Incompatible: a.Incompatible(),
		Profile:      sh.Profile(mode),
	}
	for i, slot := range a.Slots {
		v := slotView{Slot: i, Filled: slot.Filled, Compatible: slot.Compatible, OriginalIndex: slot.OriginalIndex}
		if slot.Filled {
			dr := sheet.EncodeDiagram(slot.Diagram)
			dr.PositionInSheet = slot.OriginalIndex
			v.Diagram = &dr
		}
		resp.Slots = append(resp.Slots, v)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Diagrams
// =============================================================================

type diagramResponse struct {
	Index   int                 `json:"index"`
	Diagram sheet.DiagramRecord `json:"diagram"`
}

func (s *Server) handleAddDiagram(w http.ResponseWriter, r *http.Request) {
	var dr sheet.DiagramRecord
	if err := decodeJSON(r, &dr, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	sh, ok := s.load(w, r)
	if !ok {
		return
	}
	d, err := sheet.DecodeDiagram(dr)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "invalid diagram %q", dr.Title))
		return
	}
	added, err := sh.Add(d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	index := sh.Len() - 1
	out := sheet.EncodeDiagram(added)
	out.PositionInSheet = index
	writeJSON(w, http.StatusCreated, diagramResponse{Index: index, Diagram: out})
}

func (s *Server) handleReplaceDiagram(w http.ResponseWriter, r *http.Request) {
	index, err := diagramIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var dr sheet.DiagramRecord
	if err := decodeJSON(r, &dr, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	sh, ok := s.load(w, r)
	if !ok {
		return
	}
	d, err := sheet.DecodeDiagram(dr)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "invalid diagram %q", dr.Title))
		return
	}
	replaced, err := sh.Replace(index, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	out := sheet.EncodeDiagram(replaced)
	out.PositionInSheet = index
	writeJSON(w, http.StatusOK, diagramResponse{Index: index, Diagram: out})
}

func (s *Server) handleRemoveDiagram(w http.ResponseWriter, r *http.Request) {
	index, err := diagramIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sh, ok := s.load(w, r)
	if !ok {
		return
	}
	if !sh.Remove(index) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no diagram at position %d", index))
		return
	}
	s.saveAndRespond(w, r, sh, http.StatusOK)
}

// handleClearDiagrams empties the sheet. Clearing an empty sheet succeeds
// without saving.
func (s *Server) handleClearDiagrams(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.load(w, r)
	if !ok {
		return
	}
	if !sh.Clear() {
		writeJSON(w, http.StatusOK, sheet.ToRecord(sh))
		return
	}
	s.saveAndRespond(w, r, sh, http.StatusOK)
}

func diagramIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid diagram index %q", raw)
	}
	return i, nil
}

// =============================================================================
// Export
// =============================================================================

// handleExport renders the sheet in the format named by the URL extension.
// Exports default to the export-preview layout, so every diagram appears.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "ext"))
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := exportOptions(r, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sh, ok := s.load(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Execute(r.Context(), sh, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if result.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", `attachment; filename="`+sheet.SafeFilename(sh.Title, format)+`"`)
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func exportOptions(r *http.Request, format string) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Mode:    pipeline.DefaultMode,
		Formats: []string{format},
		Style:   q.Get("style"),
		IDs:     q.Get("ids") == "true",
		Refresh: q.Get("refresh") == "true",
	}
	if m := q.Get("mode"); m != "" {
		mode, err := grid.ParseMode(m)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "mode")
		}
		opts.Mode = mode
	}
	if raw := q.Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", raw)
		}
		opts.Scale = scale
	}
	return opts, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*sheet.Sheet, bool) {
	sh, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sh, true
}

func (s *Server) saveAndRespond(w http.ResponseWriter, r *http.Request, sh *sheet.Sheet, status int) {
	if err := s.store.Put(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, sheet.ToRecord(sh))
}
