// Package scenario classifies an agent's completion state into the
// next operator action. No filesystem, tmux, or network calls are made
// in this package.
package scenario

import (
	"fmt"
	"strings"

	"github.com/redtail/muster/internal/artifact"
)

// Scenario is the classifier outcome (user-visible contract).
type Scenario string

const (
	// Working means the agent has not declared completion.
	Working Scenario = "WORKING"

	// Interactive means a human owns this session; never
	// auto-completable.
	Interactive Scenario = "INTERACTIVE"

	// Blocked means something must be resolved before finalizing:
	// unchecked verification or failed tests.
	Blocked Scenario = "BLOCKED"

	// ActionNeeded means declared follow-up actions are still open.
	ActionNeeded Scenario = "ACTION_NEEDED"

	// ReadyComplete means the work is done and can be finalized.
	ReadyComplete Scenario = "READY_COMPLETE"

	// ReadyClean means a standalone deliverable is in place and the
	// agent can simply be cleaned up.
	ReadyClean Scenario = "READY_CLEAN"
)

// IsValid reports whether s is a known scenario.
func (s Scenario) IsValid() bool {
	switch s {
	case Working, Interactive, Blocked, ActionNeeded, ReadyComplete, ReadyClean:
		return true
	}
	return false
}

// Input contains the classifier's inputs, computed by the caller from
// the record and its freshest artifact signals. Explicit BLOCKED and
// QUESTION markers are handled at the call site before classification;
// an Input is only built once no explicit signal exists.
type Input struct {
	// Phase is the resolved phase after any oracle override and after
	// reconciliation inference. Empty when nothing declared one.
	Phase string

	// PhaseInferred is true when the phase was not directly observed
	// but inferred from a reconciliation outcome.
	PhaseInferred bool

	// StandaloneDeliverable is true when the coordination artifact is
	// a specific deliverable file rather than a workspace document;
	// DeliverableExists reports whether that file is on disk.
	StandaloneDeliverable bool
	DeliverableExists     bool

	// Interactive marks records spawned as human-directed sessions.
	Interactive bool

	// RoadmapLinked is true for work declared as roadmap-linked.
	RoadmapLinked bool

	Verification artifact.Checklist
	NextActions  artifact.Checklist
	Tests        *artifact.TestSummary
}

// Result pairs the scenario with an operator-facing recommendation.
type Result struct {
	Scenario       Scenario
	Recommendation string
}

// InferredCompletePhase is the synthetic phase assigned when completion
// was concluded from a reconciliation outcome rather than read from a
// live artifact. Inputs carrying it must also set PhaseInferred.
const InferredCompletePhase = "complete (inferred)"

// QuoteLimit bounds quoted artifact text in recommendations.
const QuoteLimit = 60

// Classify derives the completion scenario for one agent. Pure and
// total: every input yields exactly one scenario.
//
// Precedence (highest to lowest):
//  1. standalone deliverable, phase not complete → WORKING
//  2. phase does not contain "complete"          → WORKING
//  3. phase inferred, not directly observed      → READY_COMPLETE (verify manually)
//  4. interactive session                        → INTERACTIVE
//  5. verification incomplete                    → BLOCKED (first unchecked item)
//  6. pending follow-up actions                  → ACTION_NEEDED (first open action)
//  7. roadmap work: failed tests                 → BLOCKED, else READY_COMPLETE
//     standalone deliverable on disk             → READY_CLEAN
//     otherwise                                  → READY_COMPLETE
func Classify(in Input) Result {
	// 1) A deliverable-producing agent that is still writing.
	if in.StandaloneDeliverable && !phaseComplete(in.Phase) {
		return Result{
			Scenario:       Working,
			Recommendation: "deliverable still in progress; check back later",
		}
	}

	// 2) No declared completion.
	if !phaseComplete(in.Phase) {
		rec := "the worker has not declared completion"
		if in.Phase != "" {
			rec = fmt.Sprintf("phase is %q; %s", in.Phase, rec)
		} else {
			rec = "no phase declared; " + rec
		}
		return Result{Scenario: Working, Recommendation: rec}
	}

	// 3) Completion was inferred, never observed.
	if in.PhaseInferred {
		return Result{
			Scenario:       ReadyComplete,
			Recommendation: "completion was inferred without an artifact; verify the work manually before cleaning up",
		}
	}

	// 4) Humans close their own sessions.
	if in.Interactive {
		return Result{
			Scenario:       Interactive,
			Recommendation: "interactive session; review and close it yourself",
		}
	}

	// 5) Unverified work outranks everything below.
	if !in.Verification.Complete() {
		item, _ := in.Verification.FirstUnchecked()
		return Result{
			Scenario:       Blocked,
			Recommendation: fmt.Sprintf("verification incomplete: %q", truncate(item.Text, QuoteLimit)),
		}
	}

	// 6) Open follow-ups outrank the ready states.
	if in.NextActions.Pending() {
		item, _ := in.NextActions.FirstUnchecked()
		return Result{
			Scenario:       ActionNeeded,
			Recommendation: fmt.Sprintf("pending follow-up: %q", truncate(item.Text, QuoteLimit)),
		}
	}

	// 7) Complete, verified, no follow-ups.
	if in.RoadmapLinked {
		if in.Tests != nil && in.Tests.Failed {
			return Result{
				Scenario:       Blocked,
				Recommendation: fmt.Sprintf("tests failed: %s", truncate(in.Tests.Raw, QuoteLimit)),
			}
		}
		return Result{
			Scenario:       ReadyComplete,
			Recommendation: "roadmap work is complete; finalize and clean up",
		}
	}
	if in.StandaloneDeliverable && in.DeliverableExists {
		return Result{
			Scenario:       ReadyClean,
			Recommendation: "deliverable is ready; archive it and clean up",
		}
	}
	return Result{
		Scenario:       ReadyComplete,
		Recommendation: "work is complete; nothing left to check",
	}
}

// phaseComplete reports whether a phase declares completion. Matching
// is containment, not equality, so "Complete" and "complete (inferred)"
// both qualify.
func phaseComplete(phase string) bool {
	return strings.Contains(strings.ToLower(phase), "complete")
}

// truncate bounds s to max runes for display.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
