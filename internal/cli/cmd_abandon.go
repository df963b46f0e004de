package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newAbandonCmd() *cobra.Command {
	var reason string
	var kill bool

	cmd := &cobra.Command{
		Use:   "abandon <agent>",
		Short: "Mark an active agent abandoned",
		Long: `Mark an active agent abandoned with an operator-supplied reason.

Arguments:
  agent    agent id, unique id prefix, or session handle

Notes:
  - --reason is required; it is recorded on the agent and in the audit log
  - --kill also kills the agent's tmux session after abandoning`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.AbandonOpts{
				Ref:    args[0],
				Reason: reason,
				Kill:   kill,
			}

			return commands.Abandon(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the agent is being abandoned (required)")
	cmd.Flags().BoolVar(&kill, "kill", false, "also kill the agent's tmux session")

	return cmd
}
