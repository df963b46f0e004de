package errors

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintOptions controls error output formatting.
type PrintOptions struct {
	// Verbose enables detailed error output with more context keys.
	Verbose bool
}

// Context key whitelist (default mode, in display order).
var defaultContextKeys = []string{
	"op",
	"agent_id",
	"handle",
	"backend",
	"status",
	"store",
	"path",
	"command",
	"exit_code",
	"reason",
	"phase",
}

// Additional context keys for verbose mode.
var verboseContextKeys = []string{
	"op",
	"agent_id",
	"handle",
	"backend",
	"status",
	"store",
	"path",
	"artifact",
	"command",
	"exit_code",
	"duration",
	"reason",
	"phase",
	"timeout",
	"hint",
}

const (
	maxValueLen      = 256 // max chars for single-line context values
	maxExtraValueLen = 128 // max chars for extra section values
)

// Format formats an error for display without I/O.
// This is a pure function - it never reads files or performs network I/O.
func Format(err error, opts PrintOptions) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	me, isMuster := AsMusterError(err)
	if !isMuster {
		// Fallback for non-MusterError errors
		sb.WriteString(err.Error())
		sb.WriteString("\n")
		return sb.String()
	}

	// Line 1: error_code
	sb.WriteString("error_code: ")
	sb.WriteString(string(me.Code))
	sb.WriteString("\n")

	// Line 2: message
	sb.WriteString(me.Msg)
	sb.WriteString("\n")

	// Context block, separated from the message by a blank line.
	// Nothing is written when no whitelisted key has a value.
	contextKeys := defaultContextKeys
	if opts.Verbose {
		contextKeys = verboseContextKeys
	}

	var ctx strings.Builder
	printedKeys := make(map[string]bool)
	for _, key := range contextKeys {
		if me.Details == nil {
			continue
		}
		val, ok := me.Details[key]
		if !ok || val == "" {
			continue
		}
		// Skip hint - printed separately at the end
		if key == "hint" {
			continue
		}
		printedKeys[key] = true
		ctx.WriteString(key)
		ctx.WriteString(": ")
		ctx.WriteString(sanitizeValue(val, maxValueLen))
		ctx.WriteString("\n")
	}
	if ctx.Len() > 0 {
		sb.WriteString("\n")
		sb.WriteString(ctx.String())
	}

	// In verbose mode, print extra keys under extra: section
	if opts.Verbose && me.Details != nil {
		var extraKeys []string
		for key := range me.Details {
			if !printedKeys[key] && key != "hint" {
				extraKeys = append(extraKeys, key)
			}
		}
		if len(extraKeys) > 0 {
			sort.Strings(extraKeys)
			sb.WriteString("\nextra:\n")
			for _, key := range extraKeys {
				val := me.Details[key]
				if val == "" {
					continue
				}
				sb.WriteString("  ")
				sb.WriteString(key)
				sb.WriteString(": ")
				sb.WriteString(sanitizeValue(val, maxExtraValueLen))
				sb.WriteString("\n")
			}
		}
	}

	// Hint line (if present)
	if me.Details != nil {
		if hint, ok := me.Details["hint"]; ok && hint != "" {
			sb.WriteString("\nhint: ")
			sb.WriteString(hint)
			sb.WriteString("\n")
		}
	}

	// Try lines (suggestions for common errors)
	for _, try := range deriveTryLines(me) {
		sb.WriteString("try: ")
		sb.WriteString(try)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
func Print(w io.Writer, err error) {
	PrintWithOptions(w, err, PrintOptions{})
}

// PrintWithOptions writes a formatted error to w with the given options.
func PrintWithOptions(w io.Writer, err error, opts PrintOptions) {
	if err == nil {
		return
	}
	_, _ = io.WriteString(w, Format(err, opts))
}

// sanitizeValue sanitizes a value for single-line context output.
// - Trims trailing whitespace first
// - Normalizes CRLF to LF
// - Replaces newlines with literal \n
// - Truncates to maxLen chars
func sanitizeValue(val string, maxLen int) string {
	val = strings.TrimRight(val, " \t\r\n")
	val = strings.ReplaceAll(val, "\r\n", "\n")
	val = strings.ReplaceAll(val, "\n", "\\n")
	if len(val) > maxLen {
		return val[:maxLen] + "…"
	}
	return val
}

// deriveTryLines returns actionable suggestions based on error code.
func deriveTryLines(me *MusterError) []string {
	if me == nil {
		return nil
	}

	var lines []string

	switch me.Code {
	case EAgentIDAmbiguous:
		lines = append(lines, "muster ls")
	case ELockTimeout:
		lines = append(lines, "wait for the other muster process to finish, then retry")
	case ETmuxNotInstalled:
		lines = append(lines, "install tmux, or register handle-less agents with --backend manual")
	case ETmuxSessionMissing:
		if me.Details != nil {
			if id := me.Details["agent_id"]; id != "" {
				lines = append(lines, fmt.Sprintf("muster reconcile  # %s's session is gone", id))
			}
		}
	}

	return lines
}

// FormatHint formats a hint for output.
// If hint already starts with "hint:", returns as-is.
// Otherwise prepends "hint: ".
func FormatHint(hint string) string {
	if hint == "" {
		return ""
	}
	if strings.HasPrefix(hint, "hint:") {
		return hint
	}
	return "hint: " + hint
}

// GetHint extracts the hint from an error's details, if present.
func GetHint(err error) string {
	me, ok := AsMusterError(err)
	if !ok || me.Details == nil {
		return ""
	}
	return me.Details["hint"]
}
