package artifact

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// phaseStrategy is one phase-extraction convention. Strategies are
// tried in order over the whole document; the first usable value wins.
type phaseStrategy struct {
	name string
	re   *regexp.Regexp
}

// inlineStrategies are the legacy line conventions, in precedence
// order. Each regex is anchored to the trimmed line so the bare form
// cannot swallow the decorated ones.
var inlineStrategies = []phaseStrategy{
	{name: "bold-phase", re: regexp.MustCompile(`^\*\*Phase:\*\*\s*(.+)$`)},
	{name: "bare-phase", re: regexp.MustCompile(`^Phase:\s*(.+)$`)},
	{name: "status-phase", re: regexp.MustCompile(`^\*\*Status:\*\*\s*Phase:\s*(.+)$`)},
}

// ExtractPhase returns the worker's declared phase and where it was
// found. A leading metadata block wins over the inline conventions.
// Unfilled template values are not phases; the chain keeps looking.
func ExtractPhase(content string) (string, PhaseSource) {
	if phase, ok := metadataPhase(content); ok {
		return phase, PhaseSourceMetadata
	}
	lines := strings.Split(content, "\n")
	for _, strat := range inlineStrategies {
		for _, line := range lines {
			m := strat.re.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			value := strings.TrimSpace(m[1])
			if value == "" || isPlaceholder(value) {
				continue
			}
			return value, PhaseSourceInline
		}
	}
	return "", PhaseSourceNone
}

// isPlaceholder reports whether a phase value is an unfilled template
// marker: pipe-separated alternatives or a fully bracketed token.
func isPlaceholder(value string) bool {
	if strings.Contains(value, "|") {
		return true
	}
	return strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]")
}

// metadataPhase reads the phase key from a leading metadata block
// delimited by --- lines. A block that fails to parse is ignored and
// the inline conventions get their turn.
func metadataPhase(content string) (string, bool) {
	body, ok := frontmatter(content)
	if !ok {
		return "", false
	}
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(body), &meta); err != nil {
		return "", false
	}
	for key, val := range meta {
		if !strings.EqualFold(key, "phase") {
			continue
		}
		s, ok := val.(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		if s == "" || isPlaceholder(s) {
			return "", false
		}
		return s, true
	}
	return "", false
}

// frontmatter returns the text between the leading --- delimiters.
// The opening delimiter must be the first line of the document.
func frontmatter(content string) (string, bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}
