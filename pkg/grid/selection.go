package grid

import (
	"regexp"
	"strconv"

	"github.com/matzehuels/fretsheet/pkg/errors"
)

var selectionPattern = regexp.MustCompile(`^(\d+)x(\d+)-(6|12)-fret$`)

// ParseSelection parses a grid selector value such as "4x4-6-fret" or
// "2x1-12-fret" (columns first). Malformed input returns an INVALID_GRID
// error; callers keep their previous config in that case.
func ParseSelection(s string) (Config, error) {
	m := selectionPattern.FindStringSubmatch(s)
	if m == nil {
		return Config{}, errors.New(errors.ErrCodeInvalidGrid, "malformed grid selection %q (want <cols>x<rows>-<6|12>-fret)", s)
	}
	cols, err1 := strconv.Atoi(m[1])
	rows, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || cols < 1 || rows < 1 || cols > MaxDimension || rows > MaxDimension {
		return Config{}, errors.New(errors.ErrCodeInvalidGrid, "grid selection %q: dimensions must be between 1 and %d", s, MaxDimension)
	}
	return Config{Rows: rows, Cols: cols, Class: DiagramTypeClass(m[3] + "-fret")}, nil
}

// Selection encodes cfg in the form ParseSelection accepts.
func Selection(cfg Config) string {
	return strconv.Itoa(cfg.Cols) + "x" + strconv.Itoa(cfg.Rows) + "-" + string(cfg.Class.Resolve())
}

// Presets returns the grid shapes offered for a fret class.
func Presets(class DiagramTypeClass) []Config {
	if class.Resolve() == TwelveFret {
		return []Config{
			{Rows: 1, Cols: 2, Class: TwelveFret},
			{Rows: 2, Cols: 2, Class: TwelveFret},
		}
	}
	return []Config{
		{Rows: 4, Cols: 4, Class: SixFret},
		{Rows: 6, Cols: 6, Class: SixFret},
		{Rows: 8, Cols: 8, Class: SixFret},
	}
}

// DefaultPreset is the first preset of a class.
func DefaultPreset(class DiagramTypeClass) Config {
	return Presets(class)[0]
}

// Default is the grid a new sheet starts with.
func Default() Config { return DefaultPreset(SixFret) }
