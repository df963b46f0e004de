package artifact

import "testing"

func TestExtractChecklist_AbsentSectionVacuouslyComplete(t *testing.T) {
	list := ExtractChecklist("# Workspace\n\nnothing here\n", verificationHeading)
	if list.Present {
		t.Error("Present = true, want false for absent section")
	}
	if !list.Complete() {
		t.Error("absent section must be vacuously complete")
	}
	if list.Pending() {
		t.Error("absent section must not be pending")
	}
}

func TestExtractChecklist_ParsesItems(t *testing.T) {
	content := `# Workspace

## Verification Required

- [x] Unit tests pass
- [ ] Run integration tests
* [X] Lint clean

## Other
- [ ] not ours
`
	list := ExtractChecklist(content, verificationHeading)
	if !list.Present {
		t.Fatal("Present = false, want true")
	}
	if len(list.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(list.Items))
	}
	if list.Complete() {
		t.Error("Complete() = true with an unchecked item")
	}
	item, ok := list.FirstUnchecked()
	if !ok {
		t.Fatal("FirstUnchecked() found nothing")
	}
	if item.Text != "Run integration tests" {
		t.Errorf("FirstUnchecked().Text = %q, want %q", item.Text, "Run integration tests")
	}
	if !list.Items[2].Checked {
		t.Error("uppercase X should count as checked")
	}
}

func TestExtractChecklist_AllCheckedComplete(t *testing.T) {
	content := "## Verification Required\n\n- [x] one\n- [x] two\n"
	list := ExtractChecklist(content, verificationHeading)
	if !list.Complete() {
		t.Error("Complete() = false, want true with all items checked")
	}
}

func TestExtractChecklist_SectionEndsAtSameLevelHeading(t *testing.T) {
	content := `## Verification Required
- [ ] in section

## Next Steps
- [ ] outside
`
	list := ExtractChecklist(content, verificationHeading)
	if len(list.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(list.Items))
	}
	if list.Items[0].Text != "in section" {
		t.Errorf("Items[0].Text = %q, want %q", list.Items[0].Text, "in section")
	}
}

func TestExtractChecklist_DeeperHeadingStaysInSection(t *testing.T) {
	content := `## Verification Required

### Manual checks
- [ ] click through the flow

# Top level
- [ ] outside
`
	list := ExtractChecklist(content, verificationHeading)
	if len(list.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1 (deeper heading is section content)", len(list.Items))
	}
}

func TestExtractChecklist_FencedHeadingIgnored(t *testing.T) {
	content := "## Verification Required\n\n```\n## Verification Required\n- [ ] fenced fake\n```\n\n- [ ] real item\n"
	list := ExtractChecklist(content, verificationHeading)
	// The fenced heading must not terminate or restart the section;
	// both checkbox-shaped lines survive, but the section stays one.
	if !list.Present {
		t.Fatal("Present = false, want true")
	}
	var texts []string
	for _, item := range list.Items {
		texts = append(texts, item.Text)
	}
	found := false
	for _, text := range texts {
		if text == "real item" {
			found = true
		}
	}
	if !found {
		t.Errorf("Items = %v, want the post-fence item included", texts)
	}
}

func TestExtractChecklist_HTMLCommentExamplesStripped(t *testing.T) {
	content := `## Verification Required

<!--
Example:
- [ ] this never counts
-->
- [x] actual check
`
	list := ExtractChecklist(content, verificationHeading)
	if len(list.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1 (comment examples stripped)", len(list.Items))
	}
	if !list.Complete() {
		t.Error("Complete() = false, want true once examples are stripped")
	}
}

func TestExtractChecklist_NextActionsVariants(t *testing.T) {
	for _, heading := range []string{"## Next-Actions", "## Next Actions", "### next-actions"} {
		content := heading + "\n- [ ] follow up\n"
		list := ExtractChecklist(content, nextActionsHeading)
		if !list.Pending() {
			t.Errorf("heading %q: Pending() = false, want true", heading)
		}
	}
}

func TestExtractChecklist_HeadingTextMatchInsideLongerTitle(t *testing.T) {
	content := "## Verification Required (before merge)\n- [ ] check\n"
	list := ExtractChecklist(content, verificationHeading)
	if !list.Present {
		t.Error("decorated heading should still match")
	}
}
