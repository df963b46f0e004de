package tmux

import (
	"context"
	goerrors "errors"
	osexec "os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/exec"
)

// maxStderrLen caps stderr in error messages.
const maxStderrLen = 4096

// ExecClient implements Client by shelling out to the tmux binary.
type ExecClient struct {
	bin    string
	runner exec.CommandRunner
}

// NewExecClient returns an ExecClient using the given tmux binary
// (empty means "tmux") and runner.
func NewExecClient(bin string, runner exec.CommandRunner) *ExecClient {
	if bin == "" {
		bin = "tmux"
	}
	return &ExecClient{bin: bin, runner: runner}
}

// ListSessions implements Client.ListSessions.
// Uses: tmux list-sessions -F #{session_name}
func (c *ExecClient) ListSessions(ctx context.Context) ([]string, error) {
	result, err := c.run(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		// tmux exits 1 with "no server running" when nothing was ever
		// started on this socket. That genuinely means zero sessions.
		if noServer(result.Stderr) {
			return []string{}, nil
		}
		return nil, c.cmdFailed("list-sessions", result.ExitCode, result.Stderr)
	}
	var names []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasSession implements Client.HasSession.
// Uses: tmux has-session -t =<name>
// The = prefix forces exact-name matching; without it tmux matches
// prefixes and "muster-a1" would shadow "muster-a12".
func (c *ExecClient) HasSession(ctx context.Context, name string) (bool, error) {
	result, err := c.run(ctx, "has-session", "-t", "="+name)
	if err != nil {
		return false, err
	}
	switch result.ExitCode {
	case 0:
		return true, nil
	case 1:
		// Missing session and missing server both exit 1; either way
		// the session is not live.
		return false, nil
	default:
		return false, c.cmdFailed("has-session", result.ExitCode, result.Stderr)
	}
}

// KillSession implements Client.KillSession.
// Uses: tmux kill-session -t =<name>
func (c *ExecClient) KillSession(ctx context.Context, name string) error {
	result, err := c.run(ctx, "kill-session", "-t", "="+name)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		if sessionMissing(result.Stderr) {
			return errors.NewWithDetails(errors.ETmuxSessionMissing,
				"tmux session "+name+" does not exist",
				map[string]string{"session": name})
		}
		return c.cmdFailed("kill-session", result.ExitCode, result.Stderr)
	}
	return nil
}

// CapturePane implements Client.CapturePane.
// Uses: tmux capture-pane -p -S - -t =<name>
// -S - captures from the start of scrollback; the tail is taken here
// after stripping escapes, because tmux has no "last N lines" mode.
func (c *ExecClient) CapturePane(ctx context.Context, name string, lines int) (string, error) {
	result, err := c.run(ctx, "capture-pane", "-p", "-S", "-", "-t", "="+name)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		if sessionMissing(result.Stderr) {
			return "", errors.NewWithDetails(errors.ETmuxSessionMissing,
				"tmux session "+name+" does not exist",
				map[string]string{"session": name})
		}
		return "", c.cmdFailed("capture-pane", result.ExitCode, result.Stderr)
	}
	return tail(StripANSI(result.Stdout), lines), nil
}

func (c *ExecClient) run(ctx context.Context, args ...string) (exec.CmdResult, error) {
	result, err := c.runner.Run(ctx, c.bin, args, exec.RunOpts{})
	if err != nil {
		if goerrors.Is(err, osexec.ErrNotFound) {
			return result, errors.WrapWithDetails(errors.ETmuxNotInstalled,
				"tmux binary not found; install tmux or set tmux.bin", err,
				map[string]string{"bin": c.bin})
		}
		return result, errors.Wrap(errors.ETmuxFailed, "tmux "+args[0]+" could not run", err)
	}
	return result, nil
}

// cmdFailed formats a non-zero tmux exit with capped stderr.
func (c *ExecClient) cmdFailed(subcmd string, exitCode int, stderr string) error {
	trimmed := strings.TrimSpace(stderr)
	if len(trimmed) > maxStderrLen {
		trimmed = trimmed[:maxStderrLen] + "..."
	}
	msg := "tmux " + subcmd + " failed"
	if trimmed != "" {
		msg += ": " + trimmed
	}
	return errors.NewWithDetails(errors.ETmuxFailed, msg,
		map[string]string{"exit_code": strconv.Itoa(exitCode)})
}

// noServer matches the stderr tmux emits when no server runs on the
// socket. Wording differs across tmux versions.
func noServer(stderr string) bool {
	return strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to")
}

// sessionMissing matches "session not found" stderr; a dead server
// also counts, the session is equally gone.
func sessionMissing(stderr string) bool {
	return strings.Contains(stderr, "can't find session") ||
		strings.Contains(stderr, "session not found") ||
		noServer(stderr)
}

// tail returns the last n non-padding lines of s. tmux pads captured
// panes with trailing blank lines to the pane height; those are
// dropped before counting.
func tail(s string, n int) string {
	all := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for len(all) > 0 && strings.TrimSpace(all[len(all)-1]) == "" {
		all = all[:len(all)-1]
	}
	if n <= 0 || n >= len(all) {
		return strings.Join(all, "\n")
	}
	return strings.Join(all[len(all)-n:], "\n")
}
