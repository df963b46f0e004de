package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newRmCmd() *cobra.Command {
	var allDone bool

	cmd := &cobra.Command{
		Use:   "rm [agent]",
		Short: "Tombstone a finished agent",
		Long: `Tombstone a finished agent. The record stays in the store for audit;
rm hides it from the default listing, it does not erase history.

Arguments:
  agent    agent id, unique id prefix, or session handle

Notes:
  - active agents are refused; abandon them first
  - --all-done tombstones every finished agent in one pass`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.RmOpts{AllDone: allDone}
			if len(args) == 1 {
				opts.Ref = args[0]
			}

			return commands.Rm(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&allDone, "all-done", false, "tombstone every finished agent")

	return cmd
}
