package tmux

import "regexp"

// ansiEscapeRegex matches the escape sequences worker TUIs leave in
// captured panes: CSI, OSC (BEL- or ST-terminated), DCS/PM/APC,
// single-character escapes, and a lone trailing ESC from a truncated
// capture.
var ansiEscapeRegex = regexp.MustCompile(
	`\x1b\[[0-9;:<=>?]*[ -/]*[@-~]` +
		`|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)?` +
		`|\x1b[@-_]` +
		`|\x1b[PX^_][^\x1b]*\x1b\\` +
		`|\x1b.` +
		`|\x1b\[?$`,
)

// StripANSI removes terminal escape sequences from s. Total: malformed
// and truncated sequences are dropped rather than passed through.
func StripANSI(s string) string {
	if s == "" {
		return s
	}
	return ansiEscapeRegex.ReplaceAllString(s, "")
}
