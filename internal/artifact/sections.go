package artifact

import (
	"regexp"
	"strings"
)

// The two headings the extractor cares about, matched case-insensitively
// against the heading text so decorated headings still count.
var (
	verificationHeading = regexp.MustCompile(`(?i)verification\s+required`)
	nextActionsHeading  = regexp.MustCompile(`(?i)next[- ]actions`)
)

var (
	// headingLine matches an ATX heading at any level.
	headingLine = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

	// fenceLine matches the start or end of a fenced code block.
	fenceLine = regexp.MustCompile("^```")

	// checkboxLine matches a task-list item under any bullet marker.
	checkboxLine = regexp.MustCompile(`^\s*[-*+]\s*\[([ xX])\]\s*(.*)$`)

	// htmlComment matches comment blocks, across lines, so templates
	// can carry example checkboxes that never count.
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// ExtractChecklist returns the checkbox list under the first heading
// matching want. The section runs from that heading to the next
// heading of the same or a higher level, or end of document. Headings
// inside fenced code blocks neither open nor close sections, and
// HTML-comment content is stripped before checkbox parsing.
func ExtractChecklist(content string, want *regexp.Regexp) Checklist {
	body, ok := sectionBody(content, want)
	if !ok {
		return Checklist{}
	}
	body = htmlComment.ReplaceAllString(body, "")

	list := Checklist{Present: true}
	for _, line := range strings.Split(body, "\n") {
		m := checkboxLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		list.Items = append(list.Items, ChecklistItem{
			Text:    strings.TrimSpace(m[2]),
			Checked: m[1] != " ",
		})
	}
	return list
}

// sectionBody extracts the content between the first heading matching
// want and the section's end.
func sectionBody(content string, want *regexp.Regexp) (string, bool) {
	var (
		buf     strings.Builder
		level   int
		found   bool
		inFence bool
	)
	for _, line := range strings.Split(content, "\n") {
		if fenceLine.MatchString(line) {
			inFence = !inFence
		}
		if !inFence {
			if m := headingLine.FindStringSubmatch(line); m != nil {
				if found {
					if len(m[1]) <= level {
						break
					}
					// A deeper heading belongs to the section.
				} else if want.MatchString(m[2]) {
					found = true
					level = len(m[1])
					continue
				}
			}
		}
		if found {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	if !found {
		return "", false
	}
	return buf.String(), true
}
