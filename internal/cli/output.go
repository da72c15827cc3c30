package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fretsheet/internal/server"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/pipeline"
	"github.com/matzehuels/fretsheet/pkg/render/styles"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// =============================================================================
// slots
// =============================================================================

// slotsCommand creates the "slots" command.
func (c *CLI) slotsCommand() *cobra.Command {
	var modeName string

	cmd := &cobra.Command{
		Use:   "slots <sheet>",
		Short: "Show which diagram lands in each grid slot",
		Long: `Show which diagram lands in each grid slot.

The interactive mode lists every slot of the grid, empty ones included. The
export mode lists only the filled slots, in the order they print.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := grid.ParseMode(modeName)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "mode")
			}
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				s, err := pipeline.Load(ctx, st, args[0])
				if err != nil {
					return err
				}
				printSlots(s, mode)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modeName, "mode", "m", grid.Interactive.String(), "allocation mode: interactive or export")
	return cmd
}

func printSlots(s *sheet.Sheet, mode grid.Mode) {
	a := s.Allocate(mode)
	p := s.Profile(mode)

	fmt.Println(StyleTitle.Render(s.Title))
	printKeyValue("Grid", grid.Selection(s.Grid))
	printKeyValue("Mode", mode.String())
	printKeyValue("Filled", fmt.Sprintf("%d of %d", a.Filled(), len(a.Slots)))
	printKeyValue("Spacing", fmt.Sprintf("%s cells %.0f×%.0f, gaps %.0f/%.0f", p.Tier, p.CellWidth, p.CellHeight, p.RowGap, p.ColumnGap))

	if len(a.Slots) > 0 {
		rows := make([][]string, 0, len(a.Slots))
		for i, slot := range a.Slots {
			row := []string{strconv.Itoa(i + 1), slotCell(s.Grid, i), "—", "—", ""}
			if slot.Filled {
				row[2] = strconv.Itoa(slot.OriginalIndex + 1)
				row[3] = displayTitle(slot.Diagram)
				if !slot.Compatible {
					row[4] = "incompatible"
				}
			}
			rows = append(rows, row)
		}
		fmt.Println()
		fmt.Println(renderTable([]string{"Slot", "Cell", "#", "Diagram", ""}, rows, func(row int) bool {
			return !a.Slots[row].Filled
		}))
	}

	change := sheet.GridChange{Previous: s.Grid, Current: s.Grid, Incompatible: a.Incompatible(), Hidden: a.Overflow()}
	for _, w := range change.Warnings() {
		printWarning("%s", w)
	}
}

// slotCell names a slot by its 1-based row and column, e.g. "r2 c3".
func slotCell(cfg grid.Config, i int) string {
	if cfg.Cols < 1 {
		return ""
	}
	return fmt.Sprintf("r%d c%d", i/cfg.Cols+1, i%cfg.Cols+1)
}

// =============================================================================
// export
// =============================================================================

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output     string
	formats    string
	style      string
	scale      float64
	mode       string
	ids        bool
	emptySlots bool
	noCache    bool
	refresh    bool
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <sheet|file.json|->",
		Short: "Export a sheet to SVG, PNG, PDF or JSON",
		Long: `Export a sheet to SVG, PNG, PDF or JSON.

The sheet is read from the store by ID, from a JSON record file, or from stdin
when the argument is "-". Files are named after the sheet title unless -o is
given; with several formats, -o is used as the base name.`,
		Example: fmt.Sprintf(`  fretsheet export warmups
  fretsheet export warmups -f svg,png --style ink -o warmups
  fretsheet export sheet.json -f pdf -o - > sheet.pdf

Styles: %s`, strings.Join(styles.Names(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, base path for several formats, or "-" for stdout`)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg, png, pdf, json (comma-separated, default from config)")
	cmd.Flags().StringVar(&opts.style, "style", "", "visual style (default from config)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor (default from config)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "export", "layout mode: export or interactive")
	cmd.Flags().BoolVar(&opts.ids, "ids", false, "tag SVG cells with slot and diagram IDs")
	cmd.Flags().BoolVar(&opts.emptySlots, "empty-slots", false, "outline empty slots (interactive mode)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached layouts and artifacts")

	return cmd
}

// pipelineOptions merges flags over the configured export defaults.
func (c *CLI) pipelineOptions(opts exportOpts) (pipeline.Options, error) {
	cfg := c.Config.Export
	po := pipeline.Options{
		Formats:    cfg.Formats,
		Style:      cfg.Style,
		Scale:      cfg.Scale,
		IDs:        opts.ids,
		EmptySlots: opts.emptySlots,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	}
	if opts.formats != "" {
		po.Formats = pipeline.ParseFormats(opts.formats)
	}
	if opts.style != "" {
		po.Style = opts.style
	}
	if opts.scale != 0 {
		po.Scale = opts.scale
	}
	mode, err := grid.ParseMode(opts.mode)
	if err != nil {
		return po, errors.Wrap(errors.ErrCodeInvalidInput, err, "mode")
	}
	po.Mode = mode
	if err := po.ValidateAndSetDefaults(); err != nil {
		return po, err
	}
	return po, nil
}

func (c *CLI) runExport(ctx context.Context, ref string, cmd *cobra.Command, opts exportOpts) error {
	logger := loggerFromContext(ctx)

	po, err := c.pipelineOptions(opts)
	if err != nil {
		return err
	}
	if opts.output == "-" && len(po.Formats) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "stdout output takes a single format, got %s", strings.Join(po.Formats, ","))
	}

	s, err := c.loadRef(ctx, ref)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Exporting %s...", s.Title))
	if opts.output != "-" {
		spinner.Start()
	}
	result, err := runner.Execute(ctx, s, po)
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.output == "-" {
		return writeArtifact("", result.Artifacts[po.Formats[0]])
	}

	printSuccess("Exported %s", s.Title)
	for _, format := range po.Formats {
		path := outputPath(opts.output, s.Title, format, len(po.Formats) > 1)
		if err := writeArtifact(path, result.Artifacts[format]); err != nil {
			return err
		}
		logger.Debugf("Wrote %s: %d bytes", path, len(result.Artifacts[format]))
		printFile(path)
	}
	printExportStats(result.Stats.Diagrams, result.Stats.Overflow, result.CacheInfo.RenderHit)
	prog.done(fmt.Sprintf("Exported %s", plural(len(po.Formats), "file")))
	return nil
}

// loadRef loads a sheet by store ID or record path. Record files and stdin
// never touch the store.
func (c *CLI) loadRef(ctx context.Context, ref string) (*sheet.Sheet, error) {
	if ref == "-" || strings.HasSuffix(strings.ToLower(ref), ".json") {
		return pipeline.Load(ctx, nil, ref)
	}
	var s *sheet.Sheet
	err := c.withStore(ctx, func(st store.Store) error {
		var err error
		s, err = pipeline.Load(ctx, st, ref)
		return err
	})
	return s, err
}

// outputPath picks the file for one format. Without -o the file is named
// after the sheet title; with several formats, -o is a base path whose
// format extension, if any, is replaced.
func outputPath(output, title, format string, multi bool) string {
	if output == "" {
		return sheet.SafeFilename(title, format)
	}
	if !multi {
		return output
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}

func writeArtifact(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns os.Stdout for an empty path and creates the file
// otherwise.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// =============================================================================
// serve
// =============================================================================

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sheet API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			printInfo("Listening on %s", StyleValue.Render("http://"+addr))
			printNextStep("Stop with", "ctrl+c")
			return server.New(st, runner, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
