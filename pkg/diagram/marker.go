package diagram

import (
	"fmt"
	"strings"
)

// Category is one of the five overlay kinds a coordinate can carry.
type Category uint8

// Marker categories. Note and Root are mutually exclusive at a coordinate;
// the remaining three are independent of each other and of Note/Root.
const (
	Note Category = iota
	Root
	XMark
	Triangle
	Square
)

// Categories lists every marker category in draw order.
var Categories = []Category{Note, Root, Square, Triangle, XMark}

var categoryNames = [...]string{
	Note:     "note",
	Root:     "root",
	XMark:    "x",
	Triangle: "triangle",
	Square:   "square",
}

// String returns the lowercase category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// Valid reports whether c is one of the five defined categories.
func (c Category) Valid() bool { return c <= Square }

// ParseCategory parses a category name as printed by [Category.String].
// "xmark" and "x-mark" are accepted as aliases of "x".
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note":
		return Note, nil
	case "root":
		return Root, nil
	case "x", "xmark", "x-mark":
		return XMark, nil
	case "triangle":
		return Triangle, nil
	case "square":
		return Square, nil
	}
	return 0, fmt.Errorf("unknown marker category %q", s)
}

// opposite returns the category that Note/Root clears, if any.
func (c Category) opposite() (Category, bool) {
	switch c {
	case Note:
		return Root, true
	case Root:
		return Note, true
	}
	return 0, false
}

// MarkerSet is the set of active categories at one coordinate.
type MarkerSet uint8

func flag(c Category) MarkerSet { return 1 << c }

// Has reports whether c is active.
func (s MarkerSet) Has(c Category) bool { return s&flag(c) != 0 }

// With returns s with c added.
func (s MarkerSet) With(c Category) MarkerSet { return s | flag(c) }

// Without returns s with c removed.
func (s MarkerSet) Without(c Category) MarkerSet { return s &^ flag(c) }

// Empty reports whether no category is active.
func (s MarkerSet) Empty() bool { return s == 0 }

// Categories returns the active categories in draw order.
func (s MarkerSet) Categories() []Category {
	var out []Category
	for _, c := range Categories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// String returns the active category names joined by "+".
func (s MarkerSet) String() string {
	if s.Empty() {
		return "none"
	}
	names := make([]string, 0, 5)
	for _, c := range s.Categories() {
		names = append(names, c.String())
	}
	return strings.Join(names, "+")
}
