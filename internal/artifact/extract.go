package artifact

import (
	"regexp"
	"strings"
)

var (
	blockedPattern  = regexp.MustCompile(`^BLOCKED:\s*(.*)$`)
	questionPattern = regexp.MustCompile(`^QUESTION:\s*(.*)$`)
)

// statusLinePrefixes identify the lines that declare worker status,
// for the AWAITING_VALIDATION marker.
var statusLinePrefixes = []string{"**Status:**", "Status:", "**Phase:**", "Phase:"}

// Extract parses artifact content into signals. It is pure; the Reader
// adds the file-level concerns (existence, stability, mtime) around it.
func Extract(content string) Signals {
	var sig Signals
	sig.Phase, sig.PhaseSource = ExtractPhase(content)

	sig.Blocked, sig.Question = extractExplicit(content)
	if sig.Blocked != nil || sig.Question != nil {
		// An explicit marker preempts every downstream consumer, so
		// the remaining extraction steps are skipped.
		return sig
	}

	sig.AwaitingValidation = hasAwaitingValidation(content)
	sig.Verification = ExtractChecklist(content, verificationHeading)
	sig.NextActions = ExtractChecklist(content, nextActionsHeading)
	sig.Tests = ExtractTestSummary(content)
	return sig
}

// extractExplicit scans for BLOCKED and QUESTION lines. BLOCKED
// outranks QUESTION no matter where each appears, so a blocked result
// always comes back alone.
func extractExplicit(content string) (blocked, question *ExplicitSignal) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := blockedPattern.FindStringSubmatch(trimmed); m != nil {
			if blocked == nil {
				blocked = &ExplicitSignal{Kind: SignalBlocked, Reason: strings.TrimSpace(m[1])}
			}
			continue
		}
		if m := questionPattern.FindStringSubmatch(trimmed); m != nil && question == nil {
			question = &ExplicitSignal{Kind: SignalQuestion, Reason: strings.TrimSpace(m[1])}
		}
	}
	if blocked != nil {
		return blocked, nil
	}
	return nil, question
}

func hasAwaitingValidation(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(trimmed, "AWAITING_VALIDATION") {
			continue
		}
		for _, prefix := range statusLinePrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				return true
			}
		}
	}
	return false
}
