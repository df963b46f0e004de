// Command muster is a control plane for autonomous coding-agent workers.
package main

import (
	"os"

	"github.com/redtail/muster/internal/cli"
	"github.com/redtail/muster/internal/errors"
)

func main() {
	err := cli.Execute(os.Stdout, os.Stderr)
	if err != nil {
		// Use verbose mode if --verbose global flag was set
		opts := errors.PrintOptions{
			Verbose: cli.GetGlobalOpts().Verbose,
		}
		errors.PrintWithOptions(os.Stderr, err, opts)
		os.Exit(errors.ExitCode(err))
	}
}
