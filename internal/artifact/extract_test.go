package artifact

import "testing"

func TestExtract_BlockedSignal(t *testing.T) {
	content := `**Phase:** Implementing

BLOCKED: waiting on database credentials
`
	sig := Extract(content)
	if sig.Blocked == nil {
		t.Fatal("Blocked = nil, want signal")
	}
	if sig.Blocked.Kind != SignalBlocked {
		t.Errorf("Kind = %s, want %s", sig.Blocked.Kind, SignalBlocked)
	}
	if sig.Blocked.Reason != "waiting on database credentials" {
		t.Errorf("Reason = %q", sig.Blocked.Reason)
	}
	if sig.Phase != "Implementing" {
		t.Errorf("Phase = %q, phase extraction must still run", sig.Phase)
	}
}

func TestExtract_QuestionSignal(t *testing.T) {
	sig := Extract("QUESTION: should retries be exponential?\n")
	if sig.Question == nil {
		t.Fatal("Question = nil, want signal")
	}
	if sig.Question.Reason != "should retries be exponential?" {
		t.Errorf("Reason = %q", sig.Question.Reason)
	}
	if sig.Blocked != nil {
		t.Error("Blocked should be nil")
	}
}

func TestExtract_BlockedBeatsQuestionEitherOrder(t *testing.T) {
	contents := []string{
		"QUESTION: first?\nBLOCKED: the real problem\n",
		"BLOCKED: the real problem\nQUESTION: first?\n",
	}
	for _, content := range contents {
		sig := Extract(content)
		if sig.Blocked == nil {
			t.Fatal("Blocked = nil, want signal")
		}
		if sig.Blocked.Reason != "the real problem" {
			t.Errorf("Reason = %q", sig.Blocked.Reason)
		}
		if sig.Question != nil {
			t.Error("Question must be suppressed when BLOCKED exists")
		}
	}
}

func TestExtract_ExplicitSignalShortCircuits(t *testing.T) {
	content := `BLOCKED: stuck

## Verification Required
- [ ] never reached

8/8 tests passed
`
	sig := Extract(content)
	if sig.Blocked == nil {
		t.Fatal("Blocked = nil, want signal")
	}
	if sig.Verification.Present {
		t.Error("Verification extracted despite explicit signal")
	}
	if sig.Tests != nil {
		t.Error("Tests extracted despite explicit signal")
	}
	if sig.AwaitingValidation {
		t.Error("AwaitingValidation set despite explicit signal")
	}
}

func TestExtract_ExplicitHelper(t *testing.T) {
	sig := Extract("QUESTION: hm?\n")
	got, ok := sig.Explicit()
	if !ok || got.Kind != SignalQuestion {
		t.Errorf("Explicit() = (%v, %v), want the question", got, ok)
	}

	if _, ok := Extract("plain doc\n").Explicit(); ok {
		t.Error("Explicit() = true for a document without markers")
	}
}

func TestExtract_AwaitingValidation(t *testing.T) {
	sig := Extract("**Status:** AWAITING_VALIDATION\n")
	if !sig.AwaitingValidation {
		t.Error("AwaitingValidation = false, want true")
	}

	// The marker only counts on a status line.
	sig = Extract("the doc mentions AWAITING_VALIDATION in prose\n")
	if sig.AwaitingValidation {
		t.Error("AwaitingValidation = true for prose mention")
	}
}

func TestExtract_FullDocument(t *testing.T) {
	content := `---
phase: Complete
---

# Workspace

**Status:** AWAITING_VALIDATION

## Verification Required
- [x] unit tests
- [x] lint

## Next-Actions
- [ ] update changelog

All 14 tests passed
`
	sig := Extract(content)
	if sig.Phase != "Complete" || sig.PhaseSource != PhaseSourceMetadata {
		t.Errorf("phase = (%q, %s)", sig.Phase, sig.PhaseSource)
	}
	if !sig.AwaitingValidation {
		t.Error("AwaitingValidation = false")
	}
	if !sig.Verification.Complete() {
		t.Error("Verification.Complete() = false")
	}
	if !sig.NextActions.Pending() {
		t.Error("NextActions.Pending() = false")
	}
	if sig.Tests == nil || sig.Tests.Passed != 14 || sig.Tests.Failed {
		t.Errorf("Tests = %+v", sig.Tests)
	}
}
