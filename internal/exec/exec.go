// Package exec provides the command execution seam for muster.
// Commands that shell out (tmux, the phase oracle) take a
// CommandRunner so tests can script responses without spawning
// processes.
package exec

import (
	"bytes"
	"context"
	"errors"
	osexec "os/exec"
)

// RunOpts holds optional settings for a single command invocation.
type RunOpts struct {
	// Dir is the working directory for the command. Empty = inherit.
	Dir string

	// Stdin is written to the command's stdin when non-empty.
	Stdin []byte
}

// CmdResult holds the outcome of a completed command.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner runs external commands.
//
// Run returns an error only for execution failures (binary not found,
// context canceled). A command that started and exited non-zero
// returns a nil error with the exit code in CmdResult; callers decide
// what non-zero means.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error)
	LookPath(file string) (string, error)
}

// RealRunner implements CommandRunner via os/exec.
type RealRunner struct{}

// NewRealRunner returns a CommandRunner backed by os/exec.
func NewRealRunner() CommandRunner {
	return RealRunner{}
}

func (RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CmdResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			// Started and exited non-zero: not an execution failure.
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	result.ExitCode = 0
	return result, nil
}

func (RealRunner) LookPath(file string) (string, error) {
	return osexec.LookPath(file)
}
