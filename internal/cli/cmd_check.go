package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
	"github.com/redtail/muster/internal/tty"
)

func newCheckCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [agent]",
		Short: "Classify how finished each agent's work is",
		Long: `Read each agent's coordination document and classify how finished the
work actually is, with a recommendation for the operator.
Without an argument, checks every active agent.

Arguments:
  agent    agent id, unique id prefix, or session handle (optional)

Notes:
  - the declared phase comes from the document, or from the tracker
    oracle when the agent carries a tracker_id
  - a BLOCKED or QUESTION line in the document pre-empts classification`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.CheckOpts{
				JSON:   jsonOutput,
				Styled: tty.StdoutIsTTY(),
			}
			if len(args) == 1 {
				opts.Ref = args[0]
			}

			return commands.Check(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON (stable format)")

	return cmd
}
