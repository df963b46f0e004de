// Package cli provides the Cobra-based command tree for muster.
package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redtail/muster/internal/version"
)

// GlobalOpts holds global options parsed before subcommand dispatch.
// Each value comes from its persistent flag or, when the flag is
// unset, the matching MUSTER_* environment variable.
type GlobalOpts struct {
	Verbose  bool
	Config   string
	DataDir  string
	LogLevel string
	LogFile  string
}

// globalOpts stores the parsed global options for access by subcommands.
var globalOpts GlobalOpts

// GetGlobalOpts returns the parsed global options.
func GetGlobalOpts() GlobalOpts {
	return globalOpts
}

// NewRootCmd creates the root cobra command for muster.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "muster",
		Short: "Control plane for autonomous coding-agent workers",
		Long: `muster - control plane for autonomous coding-agent workers

Muster tracks externally spawned workers in a durable registry, repairs
records whose tmux session has died, reads each worker's coordination
document, and classifies how finished the work actually is. It never
spawns workers and never tears down sessions on its own initiative.`,
		Version:       version.FullVersion(),
		SilenceErrors: true, // We handle error printing in main.go
		SilenceUsage:  true, // We handle usage printing manually
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			globalOpts = GlobalOpts{
				Verbose:  v.GetBool("verbose"),
				Config:   v.GetString("config"),
				DataDir:  v.GetString("data-dir"),
				LogLevel: v.GetString("log-level"),
				LogFile:  v.GetString("log-file"),
			}
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.Bool("verbose", false, "show detailed error context")
	pf.String("config", "", "config file (default: ~/.config/muster/config.yaml)")
	pf.String("data-dir", "", "data directory (overrides config)")
	pf.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.String("log-file", "", "log file (overrides config)")

	// Flags beat MUSTER_* environment variables, which beat the
	// config file applied later in newDeps.
	v.SetEnvPrefix("MUSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range []string{"verbose", "config", "data-dir", "log-level", "log-file"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}

	// Disable Cobra's default completion command (we register our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add all subcommands
	rootCmd.AddCommand(
		newInitCmd(),
		newRegisterCmd(),
		newLsCmd(),
		newShowCmd(),
		newCheckCmd(),
		newReconcileCmd(),
		newAbandonCmd(),
		newRmCmd(),
		newDoctorCmd(),
		newCompletionCmd(),
		newCompleteCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
// This is the main entry point from main.go.
func Execute(stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}
