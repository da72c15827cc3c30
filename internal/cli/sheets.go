package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// updateSheet loads sheet id, applies fn and saves the result. fn reports
// whether anything changed; unchanged sheets are not written back.
func (c *CLI) updateSheet(ctx context.Context, id string, fn func(*sheet.Sheet) (bool, error)) (*sheet.Sheet, error) {
	var out *sheet.Sheet
	err := c.withStore(ctx, func(st store.Store) error {
		s, err := st.Get(ctx, id)
		if err != nil {
			return err
		}
		changed, err := fn(s)
		if err != nil {
			return err
		}
		if changed {
			if err := st.Put(ctx, s); err != nil {
				return err
			}
		}
		out = s
		return nil
	})
	return out, err
}

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var selection, description string

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create an empty sheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sheet.New()
			if len(args) == 1 {
				if err := s.SetTitle(args[0]); err != nil {
					return err
				}
			}
			s.Description = description
			if selection != "" {
				if _, err := s.SelectGrid(selection); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			err := c.withStore(ctx, func(st store.Store) error { return st.Put(ctx, s) })
			if err != nil {
				return err
			}
			printSuccess("Created %s", StyleTitle.Render(s.Title))
			printKeyValue("ID", s.ID)
			printKeyValue("Grid", grid.Selection(s.Grid))
			printNextStep("Add a diagram", fmt.Sprintf("%s edit %s", appName, s.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&selection, "grid", "g", "", "grid as <cols>x<rows>-<6|12>-fret (default 4x4-6-fret)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "subtitle printed under the title")
	return cmd
}

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved sheets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				list, err := st.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No sheets yet")
					printNextStep("Create one", appName+" new \"My Chord Sheet\"")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, s := range list {
					rows = append(rows, []string{s.ID, s.Title, s.Grid, strconv.Itoa(s.Diagrams), formatRelativeTime(s.UpdatedAt)})
				}
				fmt.Println(renderTable([]string{"ID", "Title", "Grid", "Diagrams", "Updated"}, rows, nil))
				return nil
			})
		},
	}
}

// showCommand creates the "show" command.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sheet>",
		Short: "Show a sheet's diagrams and where they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				s, err := st.Get(ctx, args[0])
				if err != nil {
					return err
				}
				printSheet(s)
				return nil
			})
		},
	}
}

func printSheet(s *sheet.Sheet) {
	fmt.Println(StyleTitle.Render(s.Title))
	if s.Description != "" {
		fmt.Println(StyleDim.Render(s.Description))
	}
	fmt.Println()
	printKeyValue("ID", s.ID)
	printKeyValue("Grid", grid.Selection(s.Grid))
	printKeyValue("Diagrams", strconv.Itoa(s.Len()))
	if !s.UpdatedAt.IsZero() {
		printKeyValue("Updated", formatRelativeTime(s.UpdatedAt))
	}
	if s.Len() == 0 {
		return
	}

	status := diagramStatus(s)
	rows := make([][]string, 0, s.Len())
	for i, d := range s.Diagrams {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			displayTitle(d),
			fmt.Sprintf("%d×%d", d.StringCount, d.FretCount),
			markerSummary(d),
			status[i],
		})
	}
	fmt.Println()
	fmt.Println(renderTable([]string{"#", "Title", "Board", "Markers", "Sheet view"}, rows, func(row int) bool {
		return status[row] != statusVisible
	}))
	printWarnings(s)
}

const (
	statusVisible      = "visible"
	statusIncompatible = "hidden: fret count"
	statusOverflow     = "hidden: grid full"
)

// diagramStatus reports, per diagram, whether the interactive grid shows it.
func diagramStatus(s *sheet.Sheet) []string {
	out := make([]string, s.Len())
	for i, d := range s.Diagrams {
		if grid.IsCompatible(d, s.Grid) {
			out[i] = statusOverflow
		} else {
			out[i] = statusIncompatible
		}
	}
	for _, slot := range s.Allocate(grid.Interactive).Slots {
		if slot.Filled {
			out[slot.OriginalIndex] = statusVisible
		}
	}
	return out
}

// printWarnings explains hidden diagrams using the same wording as a grid
// switch.
func printWarnings(s *sheet.Sheet) {
	a := s.Allocate(grid.Interactive)
	change := sheet.GridChange{Previous: s.Grid, Current: s.Grid, Incompatible: a.Incompatible(), Hidden: a.Overflow()}
	for _, w := range change.Warnings() {
		printWarning("%s", w)
	}
}

func displayTitle(d diagram.Diagram) string {
	if d.Title == "" {
		return StyleDim.Render("untitled")
	}
	return d.Title
}

// markerSummary counts markers per category, e.g. "1 root · 3 notes · 1 open".
func markerSummary(d diagram.Diagram) string {
	var parts []string
	for _, cat := range diagram.Categories {
		n := len(d.CoordinatesWith(cat))
		if n == 0 {
			continue
		}
		name := cat.String()
		if cat == diagram.XMark {
			name = "x-mark"
		}
		parts = append(parts, plural(n, name))
	}
	if n := len(d.OpenStringList()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d open", n))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, " · ")
}

// titleCommand creates the "title" command.
func (c *CLI) titleCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "title <sheet> <title>",
		Short: "Rename a sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.updateSheet(cmd.Context(), args[0], func(s *sheet.Sheet) (bool, error) {
				if err := s.SetTitle(args[1]); err != nil {
					return false, err
				}
				if cmd.Flags().Changed("description") {
					s.Description = description
				}
				return true, nil
			})
			if err != nil {
				return err
			}
			printSuccess("Renamed to %s", StyleTitle.Render(s.Title))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "replace the subtitle (empty removes it)")
	return cmd
}

// gridCommand creates the "grid" command.
func (c *CLI) gridCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grid <sheet> [selection]",
		Short: "Show or change a sheet's grid",
		Long: `Show or change a sheet's grid.

A selection has the form <cols>x<rows>-<6|12>-fret, for example 4x4-6-fret or
2x1-12-fret. Switching grids never deletes diagrams: diagrams that no longer
fit, or whose fret count differs from the grid's, are hidden from the sheet
view but still appear in export.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return c.showGrid(cmd.Context(), args[0])
			}

			var change sheet.GridChange
			_, err := c.updateSheet(cmd.Context(), args[0], func(s *sheet.Sheet) (bool, error) {
				var err error
				change, err = s.SelectGrid(args[1])
				return err == nil, err
			})
			if err != nil {
				return err
			}
			printSuccess("Grid %s %s %s", grid.Selection(change.Previous), iconArrow, StyleTitle.Render(grid.Selection(change.Current)))
			for _, w := range change.Warnings() {
				printWarning("%s", w)
			}
			return nil
		},
	}
}

func (c *CLI) showGrid(ctx context.Context, id string) error {
	return c.withStore(ctx, func(st store.Store) error {
		s, err := st.Get(ctx, id)
		if err != nil {
			return err
		}
		printKeyValue("Grid", grid.Selection(s.Grid))
		printKeyValue("Capacity", plural(s.Grid.Capacity(), "slot"))
		fmt.Println()
		fmt.Println(StyleDim.Render("Presets:"))
		for _, class := range []grid.DiagramTypeClass{grid.SixFret, grid.TwelveFret} {
			for _, p := range grid.Presets(class) {
				marker := "  "
				if p == s.Grid {
					marker = StyleSuccess.Render(iconSuccess) + " "
				}
				fmt.Println("  " + marker + grid.Selection(p))
			}
		}
		return nil
	})
}

// duplicateCommand creates the "duplicate" command.
func (c *CLI) duplicateCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:     "duplicate <sheet>",
		Aliases: []string{"dup", "cp"},
		Short:   "Copy a sheet under a new ID",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				dup, err := store.Duplicate(ctx, st, args[0], title)
				if err != nil {
					return err
				}
				printSuccess("Created %s", StyleTitle.Render(dup.Title))
				printKeyValue("ID", dup.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", `title of the copy (default "Copy of <title>")`)
	return cmd
}

// deleteCommand creates the "delete" command.
func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <sheet>...",
		Aliases: []string{"rm"},
		Short:   "Delete sheets",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				var failed int
				for _, id := range args {
					if err := st.Delete(ctx, id); err != nil {
						printError("%s: %s", id, errors.UserMessage(err))
						failed++
						continue
					}
					printSuccess("Deleted %s", id)
				}
				if failed > 0 {
					return errors.New(errors.ErrCodeNotFound, "%d of %d sheets could not be deleted", failed, len(args))
				}
				return nil
			})
		},
	}
}

// formatRelativeTime renders t as "5m ago", "3h ago", "2d ago" or a date.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
