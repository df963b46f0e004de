// Package oracle resolves a worker's phase from an external tracker
// CLI. The oracle is advisory: every failure mode degrades to "no
// answer" so a broken or absent tracker never breaks a status check.
package oracle

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redtail/muster/internal/exec"
	"github.com/redtail/muster/internal/logging"
)

// MetaKey is the record meta key holding the tracker's work-item id.
// Records without it are never looked up.
const MetaKey = "tracker_id"

// DefaultTimeout bounds one tracker invocation.
const DefaultTimeout = 5 * time.Second

// PhaseFunc resolves the tracker's phase for an external work-item id.
// ok is false when no phase could be resolved.
type PhaseFunc func(ctx context.Context, externalID string) (phase string, ok bool)

// Disabled returns a PhaseFunc that never resolves.
func Disabled() PhaseFunc {
	return func(context.Context, string) (string, bool) { return "", false }
}

// Options configures the CLI-backed oracle.
type Options struct {
	// Cmd is the tracker binary; empty disables the oracle.
	Cmd string

	// Args are inserted before the work-item id, e.g. ["show", "--json"].
	Args []string

	Runner  exec.CommandRunner
	Logger  *slog.Logger
	Timeout time.Duration
}

// New builds a PhaseFunc shelling out to the configured tracker.
// The command line is: <cmd> <args...> <externalID>.
func New(opts Options) PhaseFunc {
	if opts.Cmd == "" {
		return Disabled()
	}
	if opts.Runner == nil {
		opts.Runner = exec.NewRealRunner()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return func(ctx context.Context, externalID string) (string, bool) {
		if strings.TrimSpace(externalID) == "" {
			return "", false
		}
		runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		args := append(append([]string{}, opts.Args...), externalID)
		result, err := opts.Runner.Run(runCtx, opts.Cmd, args, exec.RunOpts{})
		if err != nil {
			opts.Logger.Debug("phase oracle could not run",
				"cmd", opts.Cmd, "external_id", externalID, "error", err.Error())
			return "", false
		}
		if result.ExitCode != 0 {
			opts.Logger.Debug("phase oracle exited non-zero",
				"cmd", opts.Cmd, "external_id", externalID, "exit_code", result.ExitCode)
			return "", false
		}
		phase, ok := extractPhase([]byte(result.Stdout))
		if !ok {
			opts.Logger.Debug("phase oracle output had no phase",
				"cmd", opts.Cmd, "external_id", externalID)
			return "", false
		}
		return phase, true
	}
}

// extractPhase pulls a "phase" string out of the tracker's JSON.
// Accepts a single object or an array of objects (first element wins),
// since tracker CLIs disagree on the envelope.
func extractPhase(data []byte) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		return phaseField(obj)
	}
	var arr []map[string]any
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return phaseField(arr[0])
	}
	return "", false
}

func phaseField(obj map[string]any) (string, bool) {
	for key, value := range obj {
		if !strings.EqualFold(key, "phase") {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
