package grid

import "github.com/matzehuels/fretsheet/pkg/diagram"

// ExpectedFretCount resolves the fret count a grid expects. An unset class
// means SixFret.
func ExpectedFretCount(cfg Config) int {
	return cfg.Class.FretCount()
}

// ActualFretCount resolves a diagram's fret count, treating an unset count
// as six.
func ActualFretCount(d diagram.Diagram) int {
	if d.FretCount == 0 {
		return diagram.DefaultFretCount
	}
	return d.FretCount
}

// IsCompatible reports whether d may be placed in an interactive grid of the
// given config. It never fails: missing fields take their defaults.
func IsCompatible(d diagram.Diagram, cfg Config) bool {
	return ExpectedFretCount(cfg) == ActualFretCount(d)
}

// CountCompatible returns how many diagrams match cfg's fret class.
func CountCompatible(diagrams []diagram.Diagram, cfg Config) int {
	n := 0
	for _, d := range diagrams {
		if IsCompatible(d, cfg) {
			n++
		}
	}
	return n
}
