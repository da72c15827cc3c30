package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fretsheet/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The root command loads the configuration file before any subcommand runs
// and attaches the CLI logger to the command context, so subcommands read it
// back with loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Fretsheet builds printable sheets of chord and scale diagrams",
		Long: `Fretsheet is a CLI tool for building sheets of fretboard diagrams: mark notes,
roots and symbols on 4- or 6-string boards, arrange them in a grid, and export
the sheet as SVG, PNG, PDF or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/fretsheet/config.toml)")

	root.AddGroup(
		&cobra.Group{ID: groupSheets, Title: "Sheets:"},
		&cobra.Group{ID: groupDiagrams, Title: "Diagrams:"},
		&cobra.Group{ID: groupOutput, Title: "Output:"},
	)

	// Sheets
	for _, cmd := range []*cobra.Command{
		c.newCommand(),
		c.listCommand(),
		c.showCommand(),
		c.titleCommand(),
		c.gridCommand(),
		c.duplicateCommand(),
		c.deleteCommand(),
	} {
		cmd.GroupID = groupSheets
		root.AddCommand(cmd)
	}

	// Diagrams
	for _, cmd := range []*cobra.Command{
		c.addCommand(),
		c.setCommand(),
		c.editCommand(),
		c.removeCommand(),
		c.clearCommand(),
	} {
		cmd.GroupID = groupDiagrams
		root.AddCommand(cmd)
	}

	// Output
	for _, cmd := range []*cobra.Command{
		c.slotsCommand(),
		c.exportCommand(),
		c.serveCommand(),
	} {
		cmd.GroupID = groupOutput
		root.AddCommand(cmd)
	}

	for _, cmd := range root.Commands() {
		if strings.Contains(cmd.Use, "<sheet") {
			cmd.ValidArgsFunction = c.completeSheets
		}
	}

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

const (
	groupSheets   = "sheets"
	groupDiagrams = "diagrams"
	groupOutput   = "output"
)
