// Package sheet holds an editable chord sheet: a title, a grid configuration
// and the ordered diagram collection that is the single source of truth for
// slot placement.
//
// Sheet mutations check compatibility and capacity before touching the
// collection, so a rejected Add or Replace leaves the sheet unchanged.
// Layout is never cached; [Sheet.Allocate] and [Sheet.Profile] recompute it
// from the current state on every call.
package sheet

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/spacing"
)

// DefaultTitle is the title of a new sheet.
const DefaultTitle = "My Chord Sheet"

// Sheet is a titled grid of diagrams.
type Sheet struct {
	ID          string
	Title       string
	Description string
	Grid        grid.Config
	Diagrams    []diagram.Diagram
	UpdatedAt   time.Time
}

// New returns an empty sheet with the default title and grid.
func New() *Sheet {
	return &Sheet{Title: DefaultTitle, Grid: grid.Default()}
}

// Clone returns a deep copy of s.
func (s *Sheet) Clone() *Sheet {
	out := *s
	out.Diagrams = make([]diagram.Diagram, len(s.Diagrams))
	for i, d := range s.Diagrams {
		out.Diagrams[i] = d.Clone()
	}
	return &out
}

// Len returns the number of diagrams in the collection.
func (s *Sheet) Len() int { return len(s.Diagrams) }

// SetTitle validates and sets the sheet title.
func (s *Sheet) SetTitle(title string) error {
	if err := errors.ValidateTitle(title); err != nil {
		return err
	}
	s.Title = title
	return nil
}

// Add appends d to the collection and returns it with its ID set.
//
// Add rejects, without mutating the sheet, a diagram that fails validation
// (INVALID_DIAGRAM), one whose fret class differs from the grid's
// (*errors.IncompatibleError) and any diagram once the interactive grid is
// full (GRID_FULL).
func (s *Sheet) Add(d diagram.Diagram) (diagram.Diagram, error) {
	if err := s.admit(d); err != nil {
		return diagram.Diagram{}, err
	}
	if grid.CountCompatible(s.Diagrams, s.Grid) >= s.Grid.Capacity() {
		return diagram.Diagram{}, errors.New(errors.ErrCodeGridFull,
			"the %s grid is full (%d diagrams); choose a larger grid or remove a diagram", grid.Selection(s.Grid), s.Grid.Capacity())
	}

	d = d.Clone()
	if d.ID == "" {
		d.ID = diagram.NewID()
	}
	s.Diagrams = append(s.Diagrams, d)
	return d, nil
}

// Replace overwrites the diagram at index, keeping the existing diagram's ID.
// Rejections leave the sheet unchanged.
func (s *Sheet) Replace(index int, d diagram.Diagram) (diagram.Diagram, error) {
	if index < 0 || index >= len(s.Diagrams) {
		return diagram.Diagram{}, errors.New(errors.ErrCodeNotFound, "no diagram at position %d", index)
	}
	if err := s.admit(d); err != nil {
		return diagram.Diagram{}, err
	}

	d = d.Clone()
	d.ID = s.Diagrams[index].ID
	s.Diagrams[index] = d
	return d, nil
}

func (s *Sheet) admit(d diagram.Diagram) error {
	if err := d.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDiagram, err, "invalid diagram %q", d.Title)
	}
	if !grid.IsCompatible(d, s.Grid) {
		return &errors.IncompatibleError{Expected: grid.ExpectedFretCount(s.Grid), Actual: grid.ActualFretCount(d)}
	}
	return nil
}

// Remove deletes the diagram at index. It reports false, and does nothing,
// when the collection is empty or index is out of range.
func (s *Sheet) Remove(index int) bool {
	if index < 0 || index >= len(s.Diagrams) {
		return false
	}
	s.Diagrams = slices.Delete(s.Diagrams, index, index+1)
	return true
}

// IndexOf returns the position of the diagram with the given ID, or -1.
func (s *Sheet) IndexOf(id string) int {
	return slices.IndexFunc(s.Diagrams, func(d diagram.Diagram) bool { return d.ID == id })
}

// Clear empties the collection and keeps the title and grid. It reports
// false when the sheet was already empty.
func (s *Sheet) Clear() bool {
	if len(s.Diagrams) == 0 {
		return false
	}
	s.Diagrams = nil
	return true
}

// GridChange describes the effect of a grid switch on the interactive view.
type GridChange struct {
	Previous grid.Config
	Current  grid.Config

	// Incompatible diagrams are hidden because of their fret class.
	Incompatible int
	// Hidden compatible diagrams do not fit the new capacity.
	Hidden int
}

// Warnings returns user-facing notices about diagrams the new grid hides.
// Hidden diagrams are never deleted and still appear in export.
func (c GridChange) Warnings() []string {
	var out []string
	if c.Incompatible > 0 {
		out = append(out, fmt.Sprintf(
			"%d diagram(s) do not have %d frets and will be hidden in the sheet view, but still appear in preview and export",
			c.Incompatible, c.Current.Class.FretCount()))
	}
	if c.Hidden > 0 {
		out = append(out, fmt.Sprintf(
			"a %dx%d grid hides %d diagram(s); they still appear in preview and export",
			c.Current.Cols, c.Current.Rows, c.Hidden))
	}
	return out
}

// SetGrid switches the grid. It always applies a valid config, since no
// diagram is deleted, and reports what the new grid hides. An invalid config
// returns INVALID_GRID and keeps the previous one.
func (s *Sheet) SetGrid(cfg grid.Config) (GridChange, error) {
	if err := cfg.Validate(); err != nil {
		return GridChange{}, errors.Wrap(errors.ErrCodeInvalidGrid, err, "invalid grid")
	}
	cfg.Class = cfg.Class.Resolve()

	change := GridChange{Previous: s.Grid, Current: cfg}
	a := grid.Allocate(s.Diagrams, cfg, grid.Interactive)
	change.Incompatible = a.Incompatible()
	change.Hidden = a.Overflow()

	s.Grid = cfg
	return change, nil
}

// SelectGrid parses a selector value such as "4x4-6-fret" and applies it.
// Malformed input leaves the grid unchanged.
func (s *Sheet) SelectGrid(selection string) (GridChange, error) {
	cfg, err := grid.ParseSelection(selection)
	if err != nil {
		return GridChange{}, err
	}
	return s.SetGrid(cfg)
}

// Allocate places the sheet's diagrams into slots for mode.
func (s *Sheet) Allocate(mode grid.Mode) grid.Allocation {
	return grid.Allocate(s.Diagrams, s.Grid, mode)
}

// Profile resolves the spacing profile for the sheet's grid.
func (s *Sheet) Profile(mode grid.Mode) spacing.Profile {
	return spacing.Resolve(s.Grid.Cols, s.Grid.Class, mode)
}
