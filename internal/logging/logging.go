// Package logging constructs the injected slog logger for muster.
// There is no package-level logger: callers build one here and pass
// it into the components that need it.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Default info.
	Level string

	// File is the log destination. Empty means FileFor(dataDir) was
	// not resolved by the caller; logs go to stderr.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FileFor returns the default log path under the muster data dir.
func FileFor(dataDir string) string {
	return filepath.Join(dataDir, "logs", "muster.jsonl")
}

// New builds a JSON slog logger per opts. The returned closer owns the
// underlying log file; callers close it on exit. When the log file
// cannot be opened the logger falls back to stderr rather than
// failing the command.
func New(opts Options) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err == nil {
			if f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				w = f
				closer = f
			}
		}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	})
	return slog.New(handler), closer
}

// Discard returns a logger that drops everything. Used by tests and
// as the default when a component is built without one.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ParseLevel maps a config string to a slog level. Unknown = info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
