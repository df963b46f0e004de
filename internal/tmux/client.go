// Package tmux talks to the tmux server that supervises worker
// sessions. muster never spawns sessions itself; outer tooling does.
// This package only observes them, kills them on request, and captures
// pane output for display.
package tmux

import (
	"context"
	"fmt"

	"github.com/redtail/muster/internal/errors"
)

// Client is the interface for tmux operations. All methods accept a
// context for cancellation. Implementations must be testable without
// tmux installed.
type Client interface {
	// ListSessions returns the names of all running sessions. A running
	// tmux with no sessions (or no server at all on this socket) yields
	// an empty slice and nil error. Any other failure is an error:
	// callers must never mistake a broken tmux for "no sessions".
	ListSessions(ctx context.Context) ([]string, error)

	// HasSession reports whether a session with exactly this name is
	// running.
	HasSession(ctx context.Context, name string) (bool, error)

	// KillSession kills the named session. A missing session returns an
	// error with code E_TMUX_SESSION_MISSING; see IsSessionMissing.
	KillSession(ctx context.Context, name string) error

	// CapturePane returns the last lines of the session's active pane
	// scrollback with ANSI escapes stripped. lines <= 0 returns the
	// whole scrollback.
	CapturePane(ctx context.Context, name string, lines int) (string, error)
}

// SessionName returns the conventional session name for an agent id.
// Outer tooling that spawns workers uses the same convention, so a
// registration without an explicit handle still finds its session.
func SessionName(agentID string) string {
	return fmt.Sprintf("muster-%s", agentID)
}

// LiveHandles runs ListSessions and returns the result as a set, the
// shape the reconciler consumes.
func LiveHandles(ctx context.Context, c Client) (map[string]bool, error) {
	names, err := c.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, len(names))
	for _, name := range names {
		live[name] = true
	}
	return live, nil
}

// IsSessionMissing reports whether err means the target session does
// not exist, as opposed to tmux itself failing.
func IsSessionMissing(err error) bool {
	return errors.GetCode(err) == errors.ETmuxSessionMissing
}
