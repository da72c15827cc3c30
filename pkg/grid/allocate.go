package grid

import (
	"fmt"
	"strings"

	"github.com/matzehuels/fretsheet/pkg/diagram"
)

// Mode selects how diagrams are placed into slots.
type Mode int

const (
	// Interactive yields exactly rows*cols slots holding only compatible
	// diagrams, in order. Extra compatible diagrams are left out of the view.
	Interactive Mode = iota
	// ExportPreview yields one slot per diagram, compatible or not, with no
	// empty slots and no capacity limit.
	ExportPreview
)

func (m Mode) String() string {
	switch m {
	case Interactive:
		return "interactive"
	case ExportPreview:
		return "export"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts "interactive", "export" or "preview".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interactive":
		return Interactive, nil
	case "export", "preview", "export-preview":
		return ExportPreview, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// NoIndex marks a slot without a back-reference.
const NoIndex = -1

// Slot is one cell of the display grid.
type Slot struct {
	Diagram diagram.Diagram
	Filled  bool

	// OriginalIndex is the diagram's position in the unfiltered source
	// list, or NoIndex for empty slots. Edits and deletes go through it.
	OriginalIndex int

	// Compatible is false only in ExportPreview mode, for diagrams whose fret
	// class differs from the grid's.
	Compatible bool
}

// Allocation is the result of [Allocate].
type Allocation struct {
	Mode   Mode
	Config Config
	Slots  []Slot

	Total      int // diagrams in the source list
	Compatible int // diagrams matching the grid's fret class
}

// Overflow is the number of compatible diagrams an interactive grid cannot
// show. It is always zero in ExportPreview mode.
func (a Allocation) Overflow() int {
	if a.Mode != Interactive {
		return 0
	}
	return max(0, a.Compatible-a.Config.Capacity())
}

// Incompatible is the number of source diagrams of the wrong fret class.
func (a Allocation) Incompatible() int { return a.Total - a.Compatible }

// Filled returns the number of occupied slots.
func (a Allocation) Filled() int {
	n := 0
	for _, s := range a.Slots {
		if s.Filled {
			n++
		}
	}
	return n
}

// Allocate places an ordered diagram list into display slots.
//
// Filtering preserves relative order. Each filled slot refers back to the
// diagram's index in the unfiltered list, so incompatible diagrams interleaved
// before it never shift the reference. The result is recomputed from scratch
// on every call and shares no memory with diagrams beyond the Diagram values.
// cfg is expected to pass Validate; interactive slots are sized by
// cfg.Capacity, which clamps oversized dimensions.
func Allocate(diagrams []diagram.Diagram, cfg Config, mode Mode) Allocation {
	a := Allocation{Mode: mode, Config: cfg, Total: len(diagrams)}

	switch mode {
	case ExportPreview:
		a.Slots = make([]Slot, 0, len(diagrams))
		for i, d := range diagrams {
			ok := IsCompatible(d, cfg)
			if ok {
				a.Compatible++
			}
			a.Slots = append(a.Slots, Slot{Diagram: d, Filled: true, OriginalIndex: i, Compatible: ok})
		}

	default:
		capacity := cfg.Capacity()
		a.Slots = make([]Slot, capacity)
		for i := range a.Slots {
			a.Slots[i].OriginalIndex = NoIndex
		}
		next := 0
		for i, d := range diagrams {
			if !IsCompatible(d, cfg) {
				continue
			}
			a.Compatible++
			if next < capacity {
				a.Slots[next] = Slot{Diagram: d, Filled: true, OriginalIndex: i, Compatible: true}
				next++
			}
		}
	}
	return a
}
