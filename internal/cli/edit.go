package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// editCommand creates the "edit" command.
func (c *CLI) editCommand() *cobra.Command {
	var strs int

	cmd := &cobra.Command{
		Use:   "edit <sheet> [position]",
		Short: "Edit a diagram interactively",
		Long: `Edit a diagram interactively in the terminal.

Without a position a new diagram is created on the sheet's fret count. Click a
point to toggle a note, or move with the arrow keys and mark with n, r, t, s, x.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			index, d, err := c.editTarget(ctx, args, strs)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewEditorModel(d), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "editor")
			}
			em, ok := final.(EditorModel)
			if !ok || !em.Saved {
				printDetail("No changes saved")
				return nil
			}

			var saved diagram.Diagram
			_, err = c.updateSheet(ctx, args[0], func(s *sheet.Sheet) (bool, error) {
				var err error
				if index < 0 {
					saved, err = s.Add(em.Diagram)
					return err == nil, err
				}
				// Another command may have changed the sheet while the
				// editor was open; replace by ID, not by position.
				i := s.IndexOf(em.Diagram.ID)
				if i < 0 {
					return false, errors.New(errors.ErrCodeNotFound, "diagram was removed while editing")
				}
				saved, err = s.Replace(i, em.Diagram)
				return err == nil, err
			})
			if err != nil {
				return err
			}
			printSuccess("Saved %s", displayTitle(saved))
			printDetail("%s", markerSummary(saved))
			return nil
		},
	}

	cmd.Flags().IntVar(&strs, "strings", diagram.DefaultStringCount, "string count for a new diagram: 4 or 6")
	return cmd
}

// editTarget resolves the diagram to edit. index is -1 for a new diagram.
func (c *CLI) editTarget(ctx context.Context, args []string, strs int) (index int, d diagram.Diagram, err error) {
	err = c.withStore(ctx, func(st store.Store) error {
		s, err := st.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if len(args) == 1 {
			frets := s.Grid.Class.FretCount()
			if err := diagram.ValidateGeometry(strs, frets); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDiagram, err, "invalid board")
			}
			index, d = -1, diagram.New("", strs, frets)
			return nil
		}
		i, err := parsePosition(args[1], s.Len())
		if err != nil {
			return err
		}
		index, d = i, s.Diagrams[i]
		return nil
	})
	return index, d, err
}
