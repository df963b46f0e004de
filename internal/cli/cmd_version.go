package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print muster version",
		Long:  "Print the muster version string.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "muster %s\n", version.FullVersion())
		},
	}

	return cmd
}
