package diagram

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Supported geometries.
const (
	FourStrings = 4
	SixStrings  = 6

	SixFrets    = 6
	TwelveFrets = 12

	// DefaultStringCount and DefaultFretCount apply when a stored diagram
	// omits its geometry.
	DefaultStringCount = SixStrings
	DefaultFretCount   = SixFrets
)

// Diagram is one chord or scale fretboard: a strings × frets grid plus
// overlay markers.
//
// Diagram is treated as a value. Every mutation function returns a new
// Diagram and leaves its argument untouched, so a host may keep older
// versions around safely.
type Diagram struct {
	ID          string
	Title       string
	StringCount int
	FretCount   int

	// FretLabels has one entry per fret row. Zero means "no label".
	FretLabels []int

	// Markers maps a coordinate to its active categories. Coordinates with
	// an empty set are never stored.
	Markers map[Coordinate]MarkerSet

	// OpenStrings is the set of strings currently sounding open.
	OpenStrings map[int]bool
}

// NewID mints a stable diagram identifier.
func NewID() string { return uuid.NewString() }

// ValidStringCount reports whether n is a supported string count.
func ValidStringCount(n int) bool { return n == FourStrings || n == SixStrings }

// ValidFretCount reports whether n is a supported fret count.
func ValidFretCount(n int) bool { return n == SixFrets || n == TwelveFrets }

// ValidateGeometry returns an error for unsupported string or fret counts.
// Callers use it to reject editor input before calling [New] or [Resize].
func ValidateGeometry(stringCount, fretCount int) error {
	if !ValidStringCount(stringCount) {
		return fmt.Errorf("unsupported string count %d (must be 4 or 6)", stringCount)
	}
	if !ValidFretCount(fretCount) {
		return fmt.Errorf("unsupported fret count %d (must be 6 or 12)", fretCount)
	}
	return nil
}

// New creates an empty diagram with a freshly minted ID.
// It panics if the geometry is unsupported.
func New(title string, stringCount, fretCount int) Diagram {
	mustGeometry(stringCount, fretCount)
	return Diagram{
		ID:          NewID(),
		Title:       title,
		StringCount: stringCount,
		FretCount:   fretCount,
		FretLabels:  make([]int, fretCount),
		Markers:     map[Coordinate]MarkerSet{},
		OpenStrings: map[int]bool{},
	}
}

// Clone returns a deep copy of d.
func (d Diagram) Clone() Diagram {
	out := d
	out.FretLabels = slices.Clone(d.FretLabels)
	out.Markers = maps.Clone(d.Markers)
	if out.Markers == nil {
		out.Markers = map[Coordinate]MarkerSet{}
	}
	out.OpenStrings = maps.Clone(d.OpenStrings)
	if out.OpenStrings == nil {
		out.OpenStrings = map[int]bool{}
	}
	return out
}

// MarkersAt returns the active categories at c.
func (d Diagram) MarkersAt(c Coordinate) MarkerSet { return d.Markers[c] }

// Has reports whether category cat is active at c.
func (d Diagram) Has(c Coordinate, cat Category) bool { return d.Markers[c].Has(cat) }

// IsOpen reports whether string s is sounding open.
func (d Diagram) IsOpen(s int) bool { return d.OpenStrings[s] }

// OpenStringList returns the open strings in ascending order.
func (d Diagram) OpenStringList() []int {
	out := make([]int, 0, len(d.OpenStrings))
	for s, open := range d.OpenStrings {
		if open {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// Coordinates returns every marked coordinate in [CompareCoordinates] order.
func (d Diagram) Coordinates() []Coordinate {
	out := slices.Collect(maps.Keys(d.Markers))
	slices.SortFunc(out, CompareCoordinates)
	return out
}

// CoordinatesWith returns the coordinates carrying cat, sorted.
func (d Diagram) CoordinatesWith(cat Category) []Coordinate {
	var out []Coordinate
	for _, c := range d.Coordinates() {
		if d.Markers[c].Has(cat) {
			out = append(out, c)
		}
	}
	return out
}

// SetMarker returns a copy of d with category cat switched on or off at c.
//
// Activating Note clears Root at the same coordinate and vice versa.
// Activating any category on an Open coordinate adds its string to
// OpenStrings. Deactivating only removes cat; open-string membership is
// changed solely by [SetOpenString].
//
// SetMarker panics if c lies outside the diagram or cat is undefined.
func SetMarker(d Diagram, c Coordinate, cat Category, active bool) Diagram {
	d.mustContain(c)
	if !cat.Valid() {
		panic(fmt.Sprintf("diagram: undefined marker category %d", cat))
	}

	out := d.Clone()
	set := out.Markers[c]
	if active {
		if opp, ok := cat.opposite(); ok {
			set = set.Without(opp)
		}
		set = set.With(cat)
		if c.Open {
			out.OpenStrings[c.StringIndex] = true
		}
	} else {
		set = set.Without(cat)
	}

	if set.Empty() {
		delete(out.Markers, c)
	} else {
		out.Markers[c] = set
	}
	return out
}

// ToggleMarker flips category cat at c. It is the editor's click action.
func ToggleMarker(d Diagram, c Coordinate, cat Category) Diagram {
	return SetMarker(d, c, cat, !d.Has(c, cat))
}

// SetOpenString returns a copy of d with string s opened or closed.
//
// Opening never touches markers, so a root already marked on the open lane
// stays marked. Closing removes s from OpenStrings and drops the markers on
// its open lane, because an open-lane marker requires an open string.
// Fretted markers on s are never affected.
func SetOpenString(d Diagram, s int, open bool) Diagram {
	d.mustContain(Open(s))

	out := d.Clone()
	if open {
		out.OpenStrings[s] = true
		return out
	}
	delete(out.OpenStrings, s)
	delete(out.Markers, Open(s))
	return out
}

// SetFretLabel returns a copy of d with fret row f labelled. A label of 0
// clears the row.
func SetFretLabel(d Diagram, f, label int) Diagram {
	d.mustContain(Fretted(0, f))
	if label < 0 {
		panic(fmt.Sprintf("diagram: negative fret label %d", label))
	}
	out := d.Clone()
	if len(out.FretLabels) != out.FretCount {
		out.FretLabels = make([]int, out.FretCount)
	}
	out.FretLabels[f] = label
	return out
}

// Resize returns d with a new geometry. When either count changes, all
// markers, open strings and fret labels are reset; nothing carries over.
// ID and Title are preserved. Resize panics on unsupported geometry.
func Resize(d Diagram, stringCount, fretCount int) Diagram {
	mustGeometry(stringCount, fretCount)
	if d.StringCount == stringCount && d.FretCount == fretCount {
		return d.Clone()
	}
	return Diagram{
		ID:          d.ID,
		Title:       d.Title,
		StringCount: stringCount,
		FretCount:   fretCount,
		FretLabels:  make([]int, fretCount),
		Markers:     map[Coordinate]MarkerSet{},
		OpenStrings: map[int]bool{},
	}
}

// Validate checks every structural invariant. It is used for diagrams that
// arrive from outside the process (stored records, API payloads); diagrams
// built with this package's functions always validate.
func (d Diagram) Validate() error {
	if err := ValidateGeometry(d.StringCount, d.FretCount); err != nil {
		return err
	}
	if len(d.FretLabels) != d.FretCount {
		return fmt.Errorf("fret labels: got %d entries, want %d", len(d.FretLabels), d.FretCount)
	}
	for i, l := range d.FretLabels {
		if l < 0 {
			return fmt.Errorf("fret label %d is negative", i)
		}
	}
	for c, set := range d.Markers {
		if !c.InBounds(d.StringCount, d.FretCount) {
			return fmt.Errorf("marker coordinate %s out of bounds for %d×%d diagram", c, d.StringCount, d.FretCount)
		}
		if set.Has(Note) && set.Has(Root) {
			return fmt.Errorf("coordinate %s is both note and root", c)
		}
		if c.Open && !set.Empty() && !d.OpenStrings[c.StringIndex] {
			return fmt.Errorf("open-lane marker on string %d which is not open", c.StringIndex)
		}
	}
	for s := range d.OpenStrings {
		if s < 0 || s >= d.StringCount {
			return fmt.Errorf("open string %d out of bounds", s)
		}
	}
	return nil
}

func (d Diagram) mustContain(c Coordinate) {
	if !c.InBounds(d.StringCount, d.FretCount) {
		panic(fmt.Sprintf("diagram: coordinate %s out of bounds for %d×%d diagram", c, d.StringCount, d.FretCount))
	}
}

func mustGeometry(stringCount, fretCount int) {
	if err := ValidateGeometry(stringCount, fretCount); err != nil {
		panic("diagram: " + err.Error())
	}
}
