package diagram

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// openSuffix is the fret part of an open-lane coordinate key ("3-open").
const openSuffix = "open"

// Coordinate addresses one position on a diagram: either a fretted
// (string, fret) cell or the open lane above a string.
//
// Coordinate is comparable and is used directly as a map key. Open
// coordinates always carry FretIndex 0 so that two Open values for the same
// string compare equal.
type Coordinate struct {
	StringIndex int
	FretIndex   int
	Open        bool
}

// Fretted returns the coordinate of fret row f on string s.
func Fretted(s, f int) Coordinate {
	return Coordinate{StringIndex: s, FretIndex: f}
}

// Open returns the open-lane coordinate of string s.
func Open(s int) Coordinate {
	return Coordinate{StringIndex: s, Open: true}
}

// String returns the transport key: "<string>-<fret>" or "<string>-open".
func (c Coordinate) String() string {
	if c.Open {
		return strconv.Itoa(c.StringIndex) + "-" + openSuffix
	}
	return strconv.Itoa(c.StringIndex) + "-" + strconv.Itoa(c.FretIndex)
}

// InBounds reports whether c addresses a position on a diagram with the
// given geometry.
func (c Coordinate) InBounds(stringCount, fretCount int) bool {
	if c.StringIndex < 0 || c.StringIndex >= stringCount {
		return false
	}
	if c.Open {
		return true
	}
	return c.FretIndex >= 0 && c.FretIndex < fretCount
}

// ParseCoordinate parses a transport key produced by [Coordinate.String].
func ParseCoordinate(key string) (Coordinate, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: missing '-'", key)
	}
	s, err := strconv.Atoi(left)
	if err != nil || s < 0 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: bad string index", key)
	}
	if right == openSuffix {
		return Open(s), nil
	}
	f, err := strconv.Atoi(right)
	if err != nil || f < 0 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: bad fret index", key)
	}
	return Fretted(s, f), nil
}

// CompareCoordinates orders open lanes before fretted cells, then by string,
// then by fret.
func CompareCoordinates(a, b Coordinate) int {
	if a.Open != b.Open {
		if a.Open {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.StringIndex, b.StringIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.FretIndex, b.FretIndex)
}
