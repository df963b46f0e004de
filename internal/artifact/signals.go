// Package artifact reads a worker's coordination document and extracts
// the structured signals muster acts on: declared phase, explicit
// blocked/question markers, checklist completion, and test summaries.
//
// Artifacts are written by the workers themselves, concurrently and in
// free form. Reading is therefore defensive: wait for the file to stop
// changing, take a best-effort read lock, and degrade any unparseable
// field to "no signal" instead of failing the read.
package artifact

import "time"

// PhaseSource records where a phase value came from.
type PhaseSource string

const (
	// PhaseSourceNone means no phase was found.
	PhaseSourceNone PhaseSource = "none"

	// PhaseSourceMetadata means the phase came from the leading
	// metadata block.
	PhaseSourceMetadata PhaseSource = "metadata"

	// PhaseSourceInline means the phase came from one of the inline
	// line conventions.
	PhaseSourceInline PhaseSource = "inline"

	// PhaseSourceOracle means an external phase oracle overrode the
	// artifact's own value.
	PhaseSourceOracle PhaseSource = "oracle"

	// PhaseSourceInferred means no artifact was observed and the phase
	// was inferred from a reconciliation outcome.
	PhaseSourceInferred PhaseSource = "inferred"
)

// SignalKind distinguishes the explicit attention markers.
type SignalKind string

const (
	SignalBlocked  SignalKind = "blocked"
	SignalQuestion SignalKind = "question"
)

// ExplicitSignal is a BLOCKED or QUESTION line found in the artifact.
type ExplicitSignal struct {
	Kind   SignalKind
	Reason string
}

// ChecklistItem is one checkbox line from a heading-delimited section.
type ChecklistItem struct {
	Text    string
	Checked bool
}

// Checklist is the parsed checkbox list under one heading. A section
// that never appears in the document has Present false and counts as
// vacuously complete.
type Checklist struct {
	Present bool
	Items   []ChecklistItem
}

// Complete reports whether every checkbox is checked. An absent
// section is complete.
func (c Checklist) Complete() bool {
	if !c.Present {
		return true
	}
	for _, item := range c.Items {
		if !item.Checked {
			return false
		}
	}
	return true
}

// Pending reports whether the section exists and has at least one
// unchecked item.
func (c Checklist) Pending() bool {
	return c.Present && !c.Complete()
}

// FirstUnchecked returns the first unchecked item in document order.
func (c Checklist) FirstUnchecked() (ChecklistItem, bool) {
	for _, item := range c.Items {
		if !item.Checked {
			return item, true
		}
	}
	return ChecklistItem{}, false
}

// TestSummary is a parsed test-result line.
type TestSummary struct {
	// Raw is the matched line, trimmed, for display.
	Raw string

	// Passed and Total hold the counts when the line carried them;
	// both are zero for a bare failure marker.
	Passed int
	Total  int

	// Failed reports whether the line indicates any failure.
	Failed bool
}

// Signals is everything muster extracts from one coordination
// artifact.
type Signals struct {
	// Missing is set when the artifact does not exist on disk at all.
	// All other fields are zero in that case.
	Missing bool

	Phase       string
	PhaseSource PhaseSource

	// Blocked and Question are the explicit attention markers. When a
	// BLOCKED line exists, Question stays nil even if a QUESTION line
	// is also present, and the remaining extraction steps are skipped:
	// the worker needs attention regardless of anything else.
	Blocked  *ExplicitSignal
	Question *ExplicitSignal

	// AwaitingValidation is set when a status line carries the
	// AWAITING_VALIDATION marker. Non-exclusive with the rest.
	AwaitingValidation bool

	Verification Checklist
	NextActions  Checklist

	// Tests is nil when no test-result line was found.
	Tests *TestSummary

	// ModTime is the artifact's last-modified time at read.
	ModTime time.Time
}

// Explicit returns the winning explicit signal, if any.
func (s Signals) Explicit() (*ExplicitSignal, bool) {
	if s.Blocked != nil {
		return s.Blocked, true
	}
	if s.Question != nil {
		return s.Question, true
	}
	return nil, false
}
