package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newShowCmd() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "show <agent>",
		Short: "Show the detail view for one agent",
		Long: `Show the detail view for one agent.
Active tmux-backed agents also get a liveness check on their session.

Arguments:
  agent    agent id, unique id prefix, or session handle

Notes:
  - --tail captures the last N lines of the agent's live tmux pane`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.ShowOpts{
				Ref:  args[0],
				Tail: tail,
			}

			return commands.Show(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 0, "capture the last N lines of the agent's tmux pane")

	return cmd
}
