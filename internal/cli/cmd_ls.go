package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
	"github.com/redtail/muster/internal/tty"
)

func newLsCmd() *cobra.Command {
	var all bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List registered agents",
		Long: `List registered agents, oldest first.
By default, tombstoned records are hidden; --all includes them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.LsOpts{
				All:    all,
				JSON:   jsonOutput,
				Styled: tty.StdoutIsTTY(),
			}

			return commands.Ls(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include tombstoned agents")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON (stable format)")

	return cmd
}
