package artifact

import (
	"regexp"
	"strconv"
	"strings"
)

// Test-result line grammar. The counted forms are matched
// case-insensitively; the bare FAILED marker is uppercase only.
var (
	ratioPassedPattern = regexp.MustCompile(`(?i)\b(\d+)\s*/\s*(\d+)\s+tests?\s+passed\b`)
	allPassedPattern   = regexp.MustCompile(`(?i)\ball\s+(\d+)\s+tests?\s+passed\b`)
	ratioFailedPattern = regexp.MustCompile(`(?i)\b(\d+)\s*/\s*(\d+)\b.*\bfailed\b`)
	failedMarker       = regexp.MustCompile(`\bFAILED\b`)
)

// ExtractTestSummary scans for a test-result line and returns nil when
// none exists. Counted summaries win over a bare FAILED marker; among
// counted lines the first in document order is used.
func ExtractTestSummary(content string) *TestSummary {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := ratioPassedPattern.FindStringSubmatch(trimmed); m != nil {
			passed, total := atoi(m[1]), atoi(m[2])
			return &TestSummary{Raw: trimmed, Passed: passed, Total: total, Failed: passed < total}
		}
		if m := allPassedPattern.FindStringSubmatch(trimmed); m != nil {
			n := atoi(m[1])
			return &TestSummary{Raw: trimmed, Passed: n, Total: n}
		}
		if m := ratioFailedPattern.FindStringSubmatch(trimmed); m != nil {
			failed, total := atoi(m[1]), atoi(m[2])
			return &TestSummary{Raw: trimmed, Passed: total - failed, Total: total, Failed: failed > 0}
		}
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if failedMarker.MatchString(trimmed) {
			return &TestSummary{Raw: trimmed, Failed: true}
		}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
