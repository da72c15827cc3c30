package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fretsheet/pkg/store"
)

// completionCommand creates the shell completion command.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for fretsheet.

To load completions:

Bash:
  $ source <(fretsheet completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ fretsheet completion bash > /etc/bash_completion.d/fretsheet
  # macOS:
  $ fretsheet completion bash > $(brew --prefix)/etc/bash_completion.d/fretsheet

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ fretsheet completion zsh > "${fpath[1]}/_fretsheet"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ fretsheet completion fish | source

  # To load completions for each session, execute once:
  $ fretsheet completion fish > ~/.config/fish/completions/fretsheet.fish

PowerShell:
  PS> fretsheet completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> fretsheet completion powershell > fretsheet.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeSheets completes the first argument with stored sheet IDs, using
// titles as descriptions.
func (c *CLI) completeSheets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var out []string
	err := c.withStore(cmd.Context(), func(st store.Store) error {
		sums, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range sums {
			if strings.HasPrefix(s.ID, toComplete) {
				out = append(out, s.ID+"\t"+s.Title)
			}
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
