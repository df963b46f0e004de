// Package tty provides TTY detection helpers for muster commands.
package tty

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY returns true if the given file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive returns true if both stdin and stderr are TTYs.
// This is the condition required for interactive prompts.
func IsInteractive() bool {
	return IsTTY(os.Stdin) && IsTTY(os.Stderr)
}

// StdoutIsTTY reports whether stdout is a terminal. Table rendering
// picks a styled or plain layout based on this.
func StdoutIsTTY() bool {
	return IsTTY(os.Stdout)
}
