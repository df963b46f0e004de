package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newReconcileCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair records whose tmux session has died",
		Long: `Repair active records whose tmux session has vanished.
A dead session with a document declaring completion becomes completed;
anything else becomes terminated with the phase it died at. Manual
agents are never judged.

Notes:
  - aborts without judging anything when tmux itself cannot be queried
  - --dry-run previews the transitions without touching the store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.ReconcileOpts{DryRun: dryRun}

			return commands.Reconcile(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview transitions without touching the store")

	return cmd
}
