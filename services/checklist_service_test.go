package services

import (
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"pfe-report-api/models"
)

func checkAllRequired(t *testing.T, template *ChecklistTemplate) ChecklistState {
	t.Helper()
	state := ChecklistState{}
	for _, section := range template.Sections {
		for _, item := range section.Items {
			if !item.Required {
				continue
			}
			var err error
			state, err = template.Toggle(state, section.Name, item.Key, true)
			if err != nil {
				t.Fatalf("toggle %s/%s: %v", section.Name, item.Key, err)
			}
		}
	}
	return state
}

func TestProgressCountsOnlyRequiredItems(t *testing.T) {
	template, err := TemplateFor(models.ChecklistKindReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	progress := template.Progress(nil)
	if progress.Total != 13 {
		t.Fatalf("expected 13 required items, got %d", progress.Total)
	}
	if progress.Completed != 0 || progress.Percentage != 0 {
		t.Fatalf("empty state must be zero progress, got %+v", progress)
	}

	// Optional items never move the percentage.
	state, err := template.Toggle(nil, "Academic Standards", "originality", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := template.Progress(state); got.Completed != 0 || got.Percentage != 0 {
		t.Fatalf("optional item moved progress: %+v", got)
	}
}

func TestProgressRounding(t *testing.T) {
	template, _ := TemplateFor(models.ChecklistKindReview)

	cases := []struct {
		checked int
		percent int
	}{
		{0, 0},
		{1, 8},   // 7.69 rounds up
		{10, 77}, // 76.92
		{11, 85}, // 84.62
		{13, 100},
	}

	for _, tc := range cases {
		state := ChecklistState{}
		n := 0
		for _, section := range template.Sections {
			for _, item := range section.Items {
				if !item.Required || n >= tc.checked {
					continue
				}
				state, _ = template.Toggle(state, section.Name, item.Key, true)
				n++
			}
		}
		got := template.Progress(state)
		if got.Completed != tc.checked || got.Percentage != tc.percent {
			t.Fatalf("checked=%d: got %+v, want percentage %d", tc.checked, got, tc.percent)
		}
	}
}

func TestProgressIndependentOfToggleOrder(t *testing.T) {
	template, _ := TemplateFor(models.ChecklistKindReview)

	forward := ChecklistState{}
	backward := ChecklistState{}
	type pos struct{ section, key string }
	var positions []pos
	for _, section := range template.Sections {
		for _, item := range section.Items {
			positions = append(positions, pos{section.Name, item.Key})
		}
	}

	for _, p := range positions {
		forward, _ = template.Toggle(forward, p.section, p.key, true)
	}
	for i := len(positions) - 1; i >= 0; i-- {
		backward, _ = template.Toggle(backward, positions[i].section, positions[i].key, true)
	}
	// Flip one item off and on again; the end state is what counts.
	forward, _ = template.Toggle(forward, positions[0].section, positions[0].key, false)
	forward, _ = template.Toggle(forward, positions[0].section, positions[0].key, true)

	if template.Progress(forward) != template.Progress(backward) {
		t.Fatalf("progress depends on toggle order: %+v vs %+v",
			template.Progress(forward), template.Progress(backward))
	}
}

func TestToggleRejectsUnknownItem(t *testing.T) {
	template, _ := TemplateFor(models.ChecklistKindSubmission)

	if _, err := template.Toggle(nil, "Submission Readiness", "no_such_item", true); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if _, err := template.Toggle(nil, "No Such Section", "title_final", true); err == nil {
		t.Fatal("expected error for unknown section")
	}
}

func TestSubmissionGateRequiresEveryItem(t *testing.T) {
	template, _ := TemplateFor(models.ChecklistKindSubmission)

	state := checkAllRequired(t, template)
	if !template.AllChecked(state) {
		t.Fatal("fully checked submission checklist must pass")
	}
	if got := template.Progress(state); got.Percentage != 100 {
		t.Fatalf("expected 100%%, got %d", got.Percentage)
	}

	// 14 of 15 is not enough, whatever the percentage rounds to.
	state, _ = template.Toggle(state, "Submission Readiness", "final_read_through", false)
	if template.AllChecked(state) {
		t.Fatal("one unchecked item must block submission")
	}
}

func TestReviewAllCheckedIncludesOptionalItems(t *testing.T) {
	template, _ := TemplateFor(models.ChecklistKindReview)

	state := checkAllRequired(t, template)
	if got := template.Progress(state); got.Percentage != 100 {
		t.Fatalf("all required checked should be 100%%, got %d", got.Percentage)
	}
	// Optional items still count for the all-checked rule.
	if template.AllChecked(state) {
		t.Fatal("optional items unchecked, AllChecked must be false")
	}
}

func TestSectionProgress(t *testing.T) {
	template, _ := TemplateFor(models.ChecklistKindReview)

	state, _ := template.Toggle(nil, "Content Quality", "structure_logical", true)
	state, _ = template.Toggle(state, "Content Quality", "writing_clarity", true)

	sections := template.SectionProgress(state)
	if got := sections["Content Quality"]; got.Completed != 2 || got.Total != 5 || got.Percentage != 40 {
		t.Fatalf("unexpected section progress: %+v", got)
	}
	if got := sections["Academic Standards"]; got.Completed != 0 {
		t.Fatalf("untouched section should be empty: %+v", got)
	}
}

func TestCanValidateThresholdBoundary(t *testing.T) {
	cases := []struct {
		percentage int
		threshold  int
		want       bool
	}{
		{79, 80, false},
		{80, 80, true},
		{100, 80, true},
		{0, 0, true},
	}
	for _, tc := range cases {
		got := CanValidate(ChecklistProgress{Percentage: tc.percentage}, tc.threshold)
		if got != tc.want {
			t.Fatalf("CanValidate(%d, %d) = %v, want %v", tc.percentage, tc.threshold, got, tc.want)
		}
	}
}

func TestStateForNeverCreatesARow(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `report_checklists` WHERE report_id = \\? AND kind = \\?"),
			columns: []string{"checklist_id", "report_id", "kind", "items", "create_at", "update_at"},
			rows:    [][]driver.Value{},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewChecklistService(gormDB)
	got, err := service.StateFor(9, models.ChecklistKindReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("missing row should read as empty state, got %v", got)
	}
	// The script held no INSERT: a read must not write.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestToggleItemPersistsAndRecomputes(t *testing.T) {
	items, err := EncodeChecklistState(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Now()

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `report_checklists` WHERE report_id = \\? AND kind = \\?"),
			columns: []string{"checklist_id", "report_id", "kind", "items", "create_at", "update_at"},
			rows: [][]driver.Value{
				{int64(4), int64(9), models.ChecklistKindReview, []byte(items), now, now},
			},
		},
		{
			kind:         kindExec,
			pattern:      regexp.MustCompile("UPDATE `report_checklists` SET"),
			rowsAffected: 1,
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewChecklistService(gormDB)
	got, progress, err := service.ToggleItem(9, models.ChecklistKindReview, "Academic Standards", "problem_statement", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["Academic Standards"]["problem_statement"] {
		t.Fatal("toggled item missing from returned state")
	}
	if progress.Completed != 1 || progress.Total != 13 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
