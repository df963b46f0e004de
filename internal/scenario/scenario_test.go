package scenario

import (
	"strings"
	"testing"

	"github.com/redtail/muster/internal/artifact"
)

// Test helper: a completed, verified, roadmap-less input with optional
// modifications.
func mkInput(fn func(*Input)) Input {
	in := Input{
		Phase: "Complete",
	}
	if fn != nil {
		fn(&in)
	}
	return in
}

func unchecked(items ...string) artifact.Checklist {
	c := artifact.Checklist{Present: true}
	for _, text := range items {
		c.Items = append(c.Items, artifact.ChecklistItem{Text: text})
	}
	return c
}

func checked(items ...string) artifact.Checklist {
	c := artifact.Checklist{Present: true}
	for _, text := range items {
		c.Items = append(c.Items, artifact.ChecklistItem{Text: text, Checked: true})
	}
	return c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		wantScenario Scenario
		wantContains string
	}{
		// ============================================================
		// 1. Standalone deliverable still being written
		// ============================================================
		{
			name: "deliverable in progress",
			in: mkInput(func(in *Input) {
				in.Phase = "Drafting"
				in.StandaloneDeliverable = true
			}),
			wantScenario: Working,
			wantContains: "in progress",
		},
		{
			name: "deliverable with no phase at all",
			in: mkInput(func(in *Input) {
				in.Phase = ""
				in.StandaloneDeliverable = true
			}),
			wantScenario: Working,
			wantContains: "in progress",
		},

		// ============================================================
		// 2. Phase does not declare completion
		// ============================================================
		{
			name: "mid-flight phase",
			in: mkInput(func(in *Input) {
				in.Phase = "Implementing"
			}),
			wantScenario: Working,
			wantContains: `phase is "Implementing"`,
		},
		{
			name: "no phase declared",
			in: mkInput(func(in *Input) {
				in.Phase = ""
			}),
			wantScenario: Working,
			wantContains: "no phase declared",
		},
		{
			name: "completion match is case-insensitive",
			in: mkInput(func(in *Input) {
				in.Phase = "COMPLETE"
			}),
			wantScenario: ReadyComplete,
		},
		{
			name: "completion match is containment, not equality",
			in: mkInput(func(in *Input) {
				in.Phase = "Completed (all milestones)"
			}),
			wantScenario: ReadyComplete,
		},

		// ============================================================
		// 3. Inferred completion needs manual verification
		// ============================================================
		{
			name: "inferred phase",
			in: mkInput(func(in *Input) {
				in.Phase = "complete (inferred)"
				in.PhaseInferred = true
			}),
			wantScenario: ReadyComplete,
			wantContains: "verify the work manually",
		},
		{
			name: "inferred wins over interactive",
			in: mkInput(func(in *Input) {
				in.PhaseInferred = true
				in.Interactive = true
			}),
			wantScenario: ReadyComplete,
			wantContains: "manually",
		},
		{
			name: "inferred wins over unchecked verification",
			in: mkInput(func(in *Input) {
				in.PhaseInferred = true
				in.Verification = unchecked("Run integration tests")
			}),
			wantScenario: ReadyComplete,
			wantContains: "manually",
		},

		// ============================================================
		// 4. Interactive sessions are never auto-finalized
		// ============================================================
		{
			name: "interactive session",
			in: mkInput(func(in *Input) {
				in.Interactive = true
			}),
			wantScenario: Interactive,
			wantContains: "close it yourself",
		},
		{
			name: "interactive wins over unchecked verification",
			in: mkInput(func(in *Input) {
				in.Interactive = true
				in.Verification = unchecked("Check output")
			}),
			wantScenario: Interactive,
		},

		// ============================================================
		// 5. Incomplete verification blocks
		// ============================================================
		{
			name: "unchecked verification item",
			in: mkInput(func(in *Input) {
				in.Verification = unchecked("Run integration tests")
			}),
			wantScenario: Blocked,
			wantContains: `"Run integration tests"`,
		},
		{
			name: "first unchecked item is quoted, not later ones",
			in: mkInput(func(in *Input) {
				in.Verification = artifact.Checklist{Present: true, Items: []artifact.ChecklistItem{
					{Text: "Lint passes", Checked: true},
					{Text: "Manual smoke test", Checked: false},
					{Text: "Update changelog", Checked: false},
				}}
			}),
			wantScenario: Blocked,
			wantContains: `"Manual smoke test"`,
		},
		{
			name: "all verification checked is not blocked",
			in: mkInput(func(in *Input) {
				in.Verification = checked("Run integration tests")
			}),
			wantScenario: ReadyComplete,
		},
		{
			name: "absent verification section is vacuously complete",
			in:   mkInput(nil),
			wantScenario: ReadyComplete,
		},
		{
			name: "verification wins over pending actions",
			in: mkInput(func(in *Input) {
				in.Verification = unchecked("Verify deploy")
				in.NextActions = unchecked("Open follow-up ticket")
			}),
			wantScenario: Blocked,
			wantContains: `"Verify deploy"`,
		},
		{
			name: "verification wins over failed roadmap tests",
			in: mkInput(func(in *Input) {
				in.Verification = unchecked("Verify deploy")
				in.RoadmapLinked = true
				in.Tests = &artifact.TestSummary{Raw: "3/10 tests failed", Failed: true}
			}),
			wantScenario: Blocked,
			wantContains: `"Verify deploy"`,
		},

		// ============================================================
		// 6. Open follow-up actions
		// ============================================================
		{
			name: "pending next action",
			in: mkInput(func(in *Input) {
				in.NextActions = unchecked("File docs PR")
			}),
			wantScenario: ActionNeeded,
			wantContains: `"File docs PR"`,
		},
		{
			name: "completed next actions do not block",
			in: mkInput(func(in *Input) {
				in.NextActions = checked("File docs PR")
			}),
			wantScenario: ReadyComplete,
		},
		{
			name: "pending action wins over roadmap readiness",
			in: mkInput(func(in *Input) {
				in.NextActions = unchecked("File docs PR")
				in.RoadmapLinked = true
			}),
			wantScenario: ActionNeeded,
		},

		// ============================================================
		// 7. Roadmap work: tests gate readiness
		// ============================================================
		{
			name: "roadmap with failing tests",
			in: mkInput(func(in *Input) {
				in.RoadmapLinked = true
				in.Tests = &artifact.TestSummary{Raw: "6/9 tests passed", Passed: 6, Total: 9, Failed: true}
			}),
			wantScenario: Blocked,
			wantContains: "tests failed",
		},
		{
			name: "roadmap with passing tests",
			in: mkInput(func(in *Input) {
				in.RoadmapLinked = true
				in.Tests = &artifact.TestSummary{Raw: "8/8 tests passed", Passed: 8, Total: 8}
			}),
			wantScenario: ReadyComplete,
			wantContains: "roadmap",
		},
		{
			name: "roadmap with no test signal at all",
			in: mkInput(func(in *Input) {
				in.RoadmapLinked = true
			}),
			wantScenario: ReadyComplete,
			wantContains: "roadmap",
		},

		// ============================================================
		// 7. Standalone deliverable present on disk
		// ============================================================
		{
			name: "finished deliverable on disk",
			in: mkInput(func(in *Input) {
				in.StandaloneDeliverable = true
				in.DeliverableExists = true
			}),
			wantScenario: ReadyClean,
			wantContains: "deliverable is ready",
		},
		{
			name: "declared deliverable missing from disk",
			in: mkInput(func(in *Input) {
				in.StandaloneDeliverable = true
				in.DeliverableExists = false
			}),
			wantScenario: ReadyComplete,
		},
		{
			name: "roadmap wins over deliverable cleanup",
			in: mkInput(func(in *Input) {
				in.RoadmapLinked = true
				in.StandaloneDeliverable = true
				in.DeliverableExists = true
			}),
			wantScenario: ReadyComplete,
			wantContains: "roadmap",
		},

		// ============================================================
		// 8. Default: complete and nothing left to check
		// ============================================================
		{
			name:         "plain completed workspace agent",
			in:           mkInput(nil),
			wantScenario: ReadyComplete,
			wantContains: "nothing left",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)

			if got.Scenario != tt.wantScenario {
				t.Errorf("Classify() scenario = %q, want %q", got.Scenario, tt.wantScenario)
			}
			if tt.wantContains != "" && !strings.Contains(got.Recommendation, tt.wantContains) {
				t.Errorf("Classify() recommendation = %q, want it to contain %q", got.Recommendation, tt.wantContains)
			}
		})
	}
}

// TestClassifyQuotesAreBounded verifies long checklist items are
// truncated in recommendations rather than dumped whole.
func TestClassifyQuotesAreBounded(t *testing.T) {
	long := strings.Repeat("verify the thing ", 20)
	got := Classify(mkInput(func(in *Input) {
		in.Verification = unchecked(long)
	}))

	if got.Scenario != Blocked {
		t.Fatalf("Classify() scenario = %q, want %q", got.Scenario, Blocked)
	}
	if strings.Contains(got.Recommendation, long) {
		t.Errorf("recommendation contains the full %d-rune item, want a truncated quote", len([]rune(long)))
	}
	if !strings.Contains(got.Recommendation, "...") {
		t.Errorf("recommendation = %q, want a truncation marker", got.Recommendation)
	}
}

// TestClassifyCompletedAgentWithUncheckedVerification mirrors the
// common trap: a worker declares Complete while its verification
// checklist still has open items. The operator must see the item.
func TestClassifyCompletedAgentWithUncheckedVerification(t *testing.T) {
	got := Classify(Input{
		Phase: "Complete",
		Verification: artifact.Checklist{Present: true, Items: []artifact.ChecklistItem{
			{Text: "Code compiles", Checked: true},
			{Text: "Run integration tests", Checked: false},
		}},
	})

	if got.Scenario != Blocked {
		t.Fatalf("Classify() scenario = %q, want %q", got.Scenario, Blocked)
	}
	if !strings.Contains(got.Recommendation, "Run integration tests") {
		t.Errorf("recommendation = %q, want the unchecked item quoted", got.Recommendation)
	}
}

// TestClassifyRoadmapAgentWithPassingTests mirrors the clean finish: a
// roadmap-linked worker with a full pass line finalizes without manual
// gates.
func TestClassifyRoadmapAgentWithPassingTests(t *testing.T) {
	got := Classify(Input{
		Phase:         "Complete",
		RoadmapLinked: true,
		Tests:         &artifact.TestSummary{Raw: "8/8 tests passed", Passed: 8, Total: 8},
	})

	if got.Scenario != ReadyComplete {
		t.Fatalf("Classify() scenario = %q, want %q", got.Scenario, ReadyComplete)
	}
}

// TestClassifyTotal verifies every input combination lands on a known
// scenario with a non-empty recommendation.
func TestClassifyTotal(t *testing.T) {
	phases := []string{"", "Implementing", "Complete", "complete (inferred)"}
	bools := []bool{false, true}
	checklists := []artifact.Checklist{{}, unchecked("item"), checked("item")}
	summaries := []*artifact.TestSummary{nil, {Raw: "All 3 tests passed", Passed: 3, Total: 3}, {Raw: "FAILED", Failed: true}}

	for _, phase := range phases {
		for _, inferred := range bools {
			for _, standalone := range bools {
				for _, exists := range bools {
					for _, interactive := range bools {
						for _, roadmap := range bools {
							for _, verification := range checklists {
								for _, actions := range checklists {
									for _, tests := range summaries {
										got := Classify(Input{
											Phase:                 phase,
											PhaseInferred:         inferred,
											StandaloneDeliverable: standalone,
											DeliverableExists:     exists,
											Interactive:           interactive,
											RoadmapLinked:         roadmap,
											Verification:          verification,
											NextActions:           actions,
											Tests:                 tests,
										})
										if !got.Scenario.IsValid() {
											t.Fatalf("Classify() scenario = %q, not a known scenario", got.Scenario)
										}
										if got.Recommendation == "" {
											t.Fatalf("Classify() returned empty recommendation for scenario %q", got.Scenario)
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}

// TestScenarioStringConstants verifies scenario strings match expected
// values. These are user-visible contracts and must remain stable.
func TestScenarioStringConstants(t *testing.T) {
	expected := map[string]Scenario{
		"WORKING":        Working,
		"INTERACTIVE":    Interactive,
		"BLOCKED":        Blocked,
		"ACTION_NEEDED":  ActionNeeded,
		"READY_COMPLETE": ReadyComplete,
		"READY_CLEAN":    ReadyClean,
	}

	for want, s := range expected {
		if string(s) != want {
			t.Errorf("Scenario constant = %q, want %q", s, want)
		}
		if !s.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}
	if Scenario("bogus").IsValid() {
		t.Error(`IsValid("bogus") = true, want false`)
	}
}
