package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and starter config",
		Long: `Create the muster data directory and write a starter config file.
An existing config file is never overwritten without --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			return commands.Init(context.Background(), d, commands.InitOpts{Force: force}, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
