package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newCompletionCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts.
By default, prints the script to stdout.
Use --output to write directly to a file.

Arguments:
  shell    target shell: bash or zsh

Installation:

  bash (with bash-completion package):
    muster completion bash > ~/.local/share/bash-completion/completions/muster

  bash (manual):
    muster completion bash > ~/.muster-completion.bash
    echo 'source ~/.muster-completion.bash' >> ~/.bashrc

  zsh (with fpath):
    muster completion zsh > ~/.zsh/completions/_muster
    # ensure ~/.zsh/completions is in fpath before compinit

  zsh (manual):
    muster completion zsh > ~/.muster-completion.zsh
    echo 'source ~/.muster-completion.zsh' >> ~/.zshrc

After installation, restart your shell.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			opts := commands.CompletionOpts{
				Shell:  args[0],
				Output: output,
			}

			return commands.Completion(context.Background(), opts, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "write completion script to file instead of stdout")

	return cmd
}

// newCompleteCmd builds the hidden candidate generator the completion
// scripts shell out to. It must stay silent on error: a broken config
// or store must never spray errors into a tab press.
func newCompleteCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:    "__complete <kind>",
		Short:  "Generate completion candidates (internal)",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				if os.Getenv("MUSTER_DEBUG_COMPLETION") == "1" {
					return err
				}
				return nil
			}
			defer func() { _ = closer.Close() }()

			opts := commands.CompleteOpts{
				Kind: commands.CompleteKind(args[0]),
				All:  all,
			}

			return commands.Complete(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include finished agents")

	return cmd
}
