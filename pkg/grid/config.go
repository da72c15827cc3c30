package grid

import (
	"fmt"

	"github.com/matzehuels/fretsheet/pkg/diagram"
)

// DiagramTypeClass is the fret-count class a grid accepts.
type DiagramTypeClass string

const (
	SixFret    DiagramTypeClass = "6-fret"
	TwelveFret DiagramTypeClass = "12-fret"
)

// Resolve returns c, or SixFret when c is unset.
func (c DiagramTypeClass) Resolve() DiagramTypeClass {
	if c == "" {
		return SixFret
	}
	return c
}

// FretCount returns the fret count diagrams of this class carry.
func (c DiagramTypeClass) FretCount() int {
	if c.Resolve() == TwelveFret {
		return diagram.TwelveFrets
	}
	return diagram.SixFrets
}

// Valid reports whether c is unset or one of the two known classes.
func (c DiagramTypeClass) Valid() bool {
	return c == "" || c == SixFret || c == TwelveFret
}

// ClassFor returns the class matching a diagram fret count. Unset counts
// resolve to SixFret.
func ClassFor(fretCount int) DiagramTypeClass {
	if fretCount == diagram.TwelveFrets {
		return TwelveFret
	}
	return SixFret
}

// Config is the shape of the display grid and the fret class it expects.
type Config struct {
	Rows  int              `json:"rows"`
	Cols  int              `json:"cols"`
	Class DiagramTypeClass `json:"diagramTypeClass,omitempty"`
}

// MaxDimension bounds the rows and columns of any grid.
const MaxDimension = 12

// Capacity is the number of interactive slots. Dimensions are clamped to
// [0, MaxDimension], so an unvalidated config never sizes more than
// MaxDimension*MaxDimension slots.
func (c Config) Capacity() int {
	return clampDimension(c.Rows) * clampDimension(c.Cols)
}

func clampDimension(n int) int {
	return min(max(n, 0), MaxDimension)
}

// Validate rejects dimensions outside [1, MaxDimension] and unknown classes.
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("grid must have at least one row and column, got %dx%d", c.Cols, c.Rows)
	}
	if c.Rows > MaxDimension || c.Cols > MaxDimension {
		return fmt.Errorf("grid may have at most %d rows and columns, got %dx%d", MaxDimension, c.Cols, c.Rows)
	}
	if !c.Class.Valid() {
		return fmt.Errorf("unknown diagram type class %q", c.Class)
	}
	return nil
}

// String renders the config as "<cols>x<rows> <class>".
func (c Config) String() string {
	return fmt.Sprintf("%dx%d %s", c.Cols, c.Rows, c.Class.Resolve())
}
