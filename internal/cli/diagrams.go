package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

// markerFlags are the diagram-editing flags shared by add and set.
// Coordinates use the stored key form: "<string>-<fret>" or "<string>-open",
// both zero-based from the lowest string and the top fret row.
type markerFlags struct {
	title     string
	strings   int
	frets     int
	markers   map[diagram.Category]*[]string
	unset     []string
	open      []int
	closed    []int
	labels    []string
	hasTitle  bool
	geometry  bool
}

func newMarkerFlags() *markerFlags {
	return &markerFlags{markers: map[diagram.Category]*[]string{
		diagram.Note:     new([]string),
		diagram.Root:     new([]string),
		diagram.Triangle: new([]string),
		diagram.Square:   new([]string),
		diagram.XMark:    new([]string),
	}}
}

func (f *markerFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.title, "title", "t", "", "diagram title")
	fs.IntVar(&f.strings, "strings", diagram.DefaultStringCount, "string count: 4 or 6")
	fs.IntVar(&f.frets, "frets", 0, "fret count: 6 or 12 (default: the grid's)")
	fs.StringSliceVar(f.markers[diagram.Note], "note", nil, "mark notes at coordinates, e.g. 2-1,3-open")
	fs.StringSliceVar(f.markers[diagram.Root], "root", nil, "mark root notes")
	fs.StringSliceVar(f.markers[diagram.Triangle], "triangle", nil, "mark triangles")
	fs.StringSliceVar(f.markers[diagram.Square], "square", nil, "mark squares")
	fs.StringSliceVar(f.markers[diagram.XMark], "x", nil, "mark X symbols")
	fs.StringSliceVar(&f.unset, "unset", nil, "remove every marker at coordinates")
	fs.IntSliceVar(&f.open, "open", nil, "open strings")
	fs.IntSliceVar(&f.closed, "close", nil, "close strings, dropping their open-lane markers")
	fs.StringSliceVar(&f.labels, "label", nil, "fret labels as <row>=<number>, e.g. 0=5 (0 clears)")
}

// resolve records which flag groups the user actually set.
func (f *markerFlags) resolve(fs *pflag.FlagSet) {
	f.hasTitle = fs.Changed("title")
	f.geometry = fs.Changed("strings") || fs.Changed("frets")
}

// apply edits d according to the flags. Coordinates are checked against the
// diagram's geometry before any change is made.
func (f *markerFlags) apply(d diagram.Diagram) (diagram.Diagram, error) {
	if f.hasTitle {
		d.Title = f.title
	}

	for _, key := range f.unset {
		c, err := f.coordinate(d, key)
		if err != nil {
			return d, err
		}
		for _, cat := range d.MarkersAt(c).Categories() {
			d = diagram.SetMarker(d, c, cat, false)
		}
	}
	for _, s := range f.closed {
		if !diagram.Open(s).InBounds(d.StringCount, d.FretCount) {
			return d, errors.New(errors.ErrCodeInvalidDiagram, "string %d is outside a %d-string board", s, d.StringCount)
		}
		d = diagram.SetOpenString(d, s, false)
	}
	for _, s := range f.open {
		if !diagram.Open(s).InBounds(d.StringCount, d.FretCount) {
			return d, errors.New(errors.ErrCodeInvalidDiagram, "string %d is outside a %d-string board", s, d.StringCount)
		}
		d = diagram.SetOpenString(d, s, true)
	}
	for _, cat := range diagram.Categories {
		for _, key := range *f.markers[cat] {
			c, err := f.coordinate(d, key)
			if err != nil {
				return d, err
			}
			d = diagram.SetMarker(d, c, cat, true)
		}
	}
	for _, arg := range f.labels {
		row, label, err := parseLabel(arg)
		if err != nil {
			return d, err
		}
		if row < 0 || row >= d.FretCount {
			return d, errors.New(errors.ErrCodeInvalidDiagram, "fret row %d is outside a %d-fret board", row, d.FretCount)
		}
		d = diagram.SetFretLabel(d, row, label)
	}
	return d, nil
}

func (f *markerFlags) coordinate(d diagram.Diagram, key string) (diagram.Coordinate, error) {
	c, err := diagram.ParseCoordinate(key)
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeInvalidInput, err, "coordinate")
	}
	if !c.InBounds(d.StringCount, d.FretCount) {
		return c, errors.New(errors.ErrCodeInvalidDiagram, "coordinate %s is outside a %d-string, %d-fret board", key, d.StringCount, d.FretCount)
	}
	return c, nil
}

func parseLabel(arg string) (row, label int, err error) {
	left, right, ok := strings.Cut(arg, "=")
	if ok {
		row, err = strconv.Atoi(strings.TrimSpace(left))
	}
	if ok && err == nil {
		label, err = strconv.Atoi(strings.TrimSpace(right))
	}
	if !ok || err != nil || label < 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid fret label %q (want <row>=<number>)", arg)
	}
	return row, label, nil
}

// parsePosition converts a 1-based position argument to a slice index.
func parsePosition(arg string, n int) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid position %q", arg)
	}
	if pos < 1 || pos > n {
		return 0, errors.New(errors.ErrCodeNotFound, "no diagram at position %d (sheet has %s)", pos, plural(n, "diagram"))
	}
	return pos - 1, nil
}

// addCommand creates the "add" command.
func (c *CLI) addCommand() *cobra.Command {
	flags := newMarkerFlags()

	cmd := &cobra.Command{
		Use:   "add <sheet>",
		Short: "Add a diagram from flags",
		Example: `  # E major: root on the low string's open lane, notes on frets 1 and 2
  fretsheet add warmups --title E --root 0-open --note 1-1,2-1,3-0 --open 0,4,5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.resolve(cmd.Flags())
			var added diagram.Diagram
			s, err := c.updateSheet(cmd.Context(), args[0], func(s *sheet.Sheet) (bool, error) {
				frets := flags.frets
				if frets == 0 {
					frets = s.Grid.Class.FretCount()
				}
				if err := diagram.ValidateGeometry(flags.strings, frets); err != nil {
					return false, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "invalid board")
				}
				d, err := flags.apply(diagram.New(flags.title, flags.strings, frets))
				if err != nil {
					return false, err
				}
				added, err = s.Add(d)
				return err == nil, err
			})
			if err != nil {
				return err
			}
			printSuccess("Added %s at position %d", displayTitle(added), s.Len())
			printDetail("%s", markerSummary(added))
			return nil
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// setCommand creates the "set" command.
func (c *CLI) setCommand() *cobra.Command {
	flags := newMarkerFlags()

	cmd := &cobra.Command{
		Use:   "set <sheet> <position>",
		Short: "Change markers on an existing diagram",
		Long: `Change markers on an existing diagram.

Marker flags add markers; --unset removes every marker at a coordinate. Changing
--strings or --frets resizes the board and clears all of its markers first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.resolve(cmd.Flags())
			var updated diagram.Diagram
			_, err := c.updateSheet(cmd.Context(), args[0], func(s *sheet.Sheet) (bool, error) {
				i, err := parsePosition(args[1], s.Len())
				if err != nil {
					return false, err
				}
				d := s.Diagrams[i]
				if flags.geometry {
					strs, frets := d.StringCount, d.FretCount
					if cmd.Flags().Changed("strings") {
						strs = flags.strings
					}
					if cmd.Flags().Changed("frets") {
						frets = flags.frets
					}
					if err := diagram.ValidateGeometry(strs, frets); err != nil {
						return false, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "invalid board")
					}
					d = diagram.Resize(d, strs, frets)
				}
				if d, err = flags.apply(d); err != nil {
					return false, err
				}
				updated, err = s.Replace(i, d)
				return err == nil, err
			})
			if err != nil {
				return err
			}
			printSuccess("Updated %s", displayTitle(updated))
			printDetail("%s", markerSummary(updated))
			return nil
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// removeCommand creates the "remove" command.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sheet> <position>",
		Short: "Remove a diagram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed diagram.Diagram
			_, err := c.updateSheet(cmd.Context(), args[0], func(s *sheet.Sheet) (bool, error) {
				i, err := parsePosition(args[1], s.Len())
				if err != nil {
					return false, err
				}
				removed = s.Diagrams[i]
				return s.Remove(i), nil
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", displayTitle(removed))
			return nil
		},
	}
}

// clearCommand creates the "clear" command.
func (c *CLI) clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <sheet>",
		Short: "Remove every diagram, keeping the title and grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New(errors.ErrCodeInvalidInput, "clear removes every diagram; pass --yes to confirm")
			}
			var n int
			_, err := c.updateSheet(cmd.Context(), args[0], func(s *sheet.Sheet) (bool, error) {
				n = s.Len()
				return s.Clear(), nil
			})
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Sheet is already empty")
				return nil
			}
			printSuccess("Removed %s", plural(n, "diagram"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm removing all diagrams")
	return cmd
}

// describeCoordinate renders c for humans, e.g. "string 3, fret 2".
func describeCoordinate(c diagram.Coordinate) string {
	if c.Open {
		return fmt.Sprintf("string %d, open", c.StringIndex+1)
	}
	return fmt.Sprintf("string %d, fret %d", c.StringIndex+1, c.FretIndex+1)
}
