// Package pkg provides the core libraries for Fretsheet chord and scale sheets.
//
// # Overview
//
// A sheet is a titled grid of fretboard diagrams. Each diagram is a 4- or
// 6-string board with 6 or 12 fret rows, an open-string lane above the nut,
// and five kinds of overlay markers. The pkg directory is organized into
// three areas:
//
//  1. Domain model - [diagram], [grid], [spacing], [geometry], [sheet]
//  2. Output - [render] and [pipeline]
//  3. Infrastructure - [store], [cache], [errors], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	Sheet (store or JSON record)
//	         ↓
//	    [grid] package (allocate diagrams to slots for a mode)
//	         ↓
//	    [spacing] package (size tier and gaps for the grid)
//	         ↓
//	    [render/layout] package (page positions via [geometry])
//	         ↓
//	    SVG/PDF/PNG/JSON output
//
// # Quick Start
//
//	s := sheet.New()
//	d := diagram.New("E", diagram.SixStrings, diagram.SixFrets)
//	d = diagram.SetMarker(d, diagram.Open(0), diagram.Root, true)
//	d = diagram.SetMarker(d, diagram.Fretted(3, 0), diagram.Note, true)
//	if _, err := s.Add(d); err != nil {
//	    return err
//	}
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, s, pipeline.Options{
//	    Mode:    pipeline.DefaultMode,
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// # Main Packages
//
// ## Domain Model
//
// [diagram] - Coordinates, marker categories and value-style mutation of a
// single fretboard. Note and Root exclude each other at a coordinate; closing
// a string drops its open-lane markers.
//
// [grid] - Grid configuration, the compatibility rule between a diagram's
// fret count and a grid's fret class, and slot allocation in interactive and
// export-preview modes.
//
// [spacing] - Size tier and row/column gaps for a grid width, fret class and
// mode.
//
// [geometry] - The single mapping from coordinates to positions inside a
// diagram box, and its inverse for hit testing.
//
// [sheet] - The diagram collection with its grid, plus the persisted record
// format.
//
// ## Output
//
// [render] - Page layout, styles and the SVG, PNG, PDF and JSON sinks.
//
// [pipeline] - Complete export pipeline (load → layout → render) used by the
// CLI and the HTTP server. Ensures consistent output across entry points.
//
// ## Infrastructure
//
// [store] - Sheet persistence with file, MongoDB and Redis backends.
//
// [cache] - Layout and artifact caching with file, Redis and null backends.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [observability] - Hooks for request metrics and tracing.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/grid/...               # Specific package
//	go test -run Example                 # Examples only
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/diagram
// [grid]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/grid
// [spacing]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/spacing
// [geometry]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/geometry
// [sheet]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/sheet
// [render]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/render
// [render/layout]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/render/layout
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/pipeline
// [store]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/fretsheet/pkg/observability
package pkg
