package sheet

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
)

// Record is the persisted form of a sheet. Every marker category travels
// as its own list of coordinate keys ("<string>-<fret>" or "<string>-open").
type Record struct {
	ID          string          `json:"id,omitempty" bson:"_id,omitempty" msgpack:"id"`
	Title       string          `json:"title" bson:"title" msgpack:"title"`
	Description string          `json:"description,omitempty" bson:"description,omitempty" msgpack:"description"`
	GridRows    int             `json:"gridRows" bson:"gridRows" msgpack:"gridRows"`
	GridCols    int             `json:"gridCols" bson:"gridCols" msgpack:"gridCols"`
	GridType    string          `json:"diagramTypeClass,omitempty" bson:"diagramTypeClass,omitempty" msgpack:"diagramTypeClass"`
	Diagrams    []DiagramRecord `json:"diagrams" bson:"diagrams" msgpack:"diagrams"`
	UpdatedAt   time.Time       `json:"updatedAt,omitzero" bson:"updatedAt" msgpack:"updatedAt"`
}

// DiagramRecord is the persisted form of one diagram.
type DiagramRecord struct {
	ID              string   `json:"id,omitempty" bson:"id,omitempty" msgpack:"id"`
	Title           string   `json:"title" bson:"title" msgpack:"title"`
	StringCount     int      `json:"stringCount,omitempty" bson:"stringCount,omitempty" msgpack:"stringCount"`
	FretCount       int      `json:"fretCount,omitempty" bson:"fretCount,omitempty" msgpack:"fretCount"`
	FretLabels      []int    `json:"fretLabels,omitempty" bson:"fretLabels,omitempty" msgpack:"fretLabels"`
	Notes           []string `json:"notes,omitempty" bson:"notes,omitempty" msgpack:"notes"`
	RootNotes       []string `json:"rootNotes,omitempty" bson:"rootNotes,omitempty" msgpack:"rootNotes"`
	OpenStrings     []int    `json:"openStrings,omitempty" bson:"openStrings,omitempty" msgpack:"openStrings"`
	XMarks          []string `json:"xMarks,omitempty" bson:"xMarks,omitempty" msgpack:"xMarks"`
	Triangles       []string `json:"triangles,omitempty" bson:"triangles,omitempty" msgpack:"triangles"`
	Squares         []string `json:"squares,omitempty" bson:"squares,omitempty" msgpack:"squares"`
	PositionInSheet int      `json:"positionInSheet" bson:"positionInSheet" msgpack:"positionInSheet"`
}

// lists returns pointers to the per-category coordinate lists.
func (r *DiagramRecord) lists() map[diagram.Category]*[]string {
	return map[diagram.Category]*[]string{
		diagram.Note:     &r.Notes,
		diagram.Root:     &r.RootNotes,
		diagram.XMark:    &r.XMarks,
		diagram.Triangle: &r.Triangles,
		diagram.Square:   &r.Squares,
	}
}

// ToRecord flattens s into its persisted form. Lists are sorted so equal
// sheets encode identically.
func ToRecord(s *Sheet) Record {
	rec := Record{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		GridRows:    s.Grid.Rows,
		GridCols:    s.Grid.Cols,
		GridType:    string(s.Grid.Class.Resolve()),
		Diagrams:    make([]DiagramRecord, 0, len(s.Diagrams)),
		UpdatedAt:   s.UpdatedAt,
	}
	for i, d := range s.Diagrams {
		dr := EncodeDiagram(d)
		dr.PositionInSheet = i
		rec.Diagrams = append(rec.Diagrams, dr)
	}
	return rec
}

// EncodeDiagram flattens the marker mapping of d into parallel lists.
func EncodeDiagram(d diagram.Diagram) DiagramRecord {
	dr := DiagramRecord{
		ID:          d.ID,
		Title:       d.Title,
		StringCount: d.StringCount,
		FretCount:   d.FretCount,
		FretLabels:  slices.Clone(d.FretLabels),
		OpenStrings: d.OpenStringList(),
	}
	lists := dr.lists()
	for _, c := range d.Coordinates() {
		for _, cat := range d.MarkersAt(c).Categories() {
			*lists[cat] = append(*lists[cat], c.String())
		}
	}
	return dr
}

// FromRecord rebuilds a sheet from its persisted form. Diagrams are ordered
// by PositionInSheet; missing geometry defaults to six strings and six
// frets. Records are external input, so malformed diagrams return
// INVALID_DIAGRAM rather than panicking.
func FromRecord(rec Record) (*Sheet, error) {
	s := &Sheet{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Grid:        grid.Config{Rows: rec.GridRows, Cols: rec.GridCols, Class: grid.DiagramTypeClass(rec.GridType).Resolve()},
		UpdatedAt:   rec.UpdatedAt,
	}
	if s.Grid.Rows == 0 && s.Grid.Cols == 0 {
		s.Grid = grid.DefaultPreset(s.Grid.Class)
	}
	if err := s.Grid.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "sheet %q", rec.Title)
	}

	ordered := slices.Clone(rec.Diagrams)
	slices.SortStableFunc(ordered, func(a, b DiagramRecord) int {
		return cmp.Compare(a.PositionInSheet, b.PositionInSheet)
	})

	for i, dr := range ordered {
		d, err := DecodeDiagram(dr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "diagram %d (%q)", i, dr.Title)
		}
		s.Diagrams = append(s.Diagrams, d)
	}
	return s, nil
}

// DecodeDiagram rebuilds one diagram from its parallel lists. A marker on an
// open lane marks its string open.
func DecodeDiagram(dr DiagramRecord) (diagram.Diagram, error) {
	strs := cmp.Or(dr.StringCount, diagram.DefaultStringCount)
	frets := cmp.Or(dr.FretCount, diagram.DefaultFretCount)
	if err := diagram.ValidateGeometry(strs, frets); err != nil {
		return diagram.Diagram{}, err
	}

	d := diagram.Diagram{
		ID:          cmp.Or(dr.ID, diagram.NewID()),
		Title:       dr.Title,
		StringCount: strs,
		FretCount:   frets,
		FretLabels:  make([]int, frets),
		Markers:     map[diagram.Coordinate]diagram.MarkerSet{},
		OpenStrings: map[int]bool{},
	}
	if len(dr.FretLabels) > frets {
		return diagram.Diagram{}, fmt.Errorf("%d fret labels for %d frets", len(dr.FretLabels), frets)
	}
	copy(d.FretLabels, dr.FretLabels)

	for _, s := range dr.OpenStrings {
		d.OpenStrings[s] = true
	}
	for cat, list := range dr.lists() {
		for _, key := range *list {
			c, err := diagram.ParseCoordinate(key)
			if err != nil {
				return diagram.Diagram{}, err
			}
			if !c.InBounds(strs, frets) {
				return diagram.Diagram{}, fmt.Errorf("%s coordinate %s out of bounds", cat, key)
			}
			d.Markers[c] = d.Markers[c].With(cat)
			if c.Open {
				d.OpenStrings[c.StringIndex] = true
			}
		}
	}

	if err := d.Validate(); err != nil {
		return diagram.Diagram{}, err
	}
	return d, nil
}
