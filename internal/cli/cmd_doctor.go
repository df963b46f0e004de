package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report on muster's environment",
		Long: `Report on muster's environment: config, data directory, store health,
lock availability, tmux, and the phase oracle.
Always exits zero; problems show up in the report, not the exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			return commands.Doctor(context.Background(), d, stdout, stderr)
		},
	}

	return cmd
}
