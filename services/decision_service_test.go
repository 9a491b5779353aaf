package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"pfe-report-api/models"
)

func TestSubmitDecisionUnknownDecision(t *testing.T) {
	service := NewDecisionService(nil, nil, nil, nil)

	_, err := service.SubmitDecision(1, 1, DecisionInput{Decision: "approved"})
	if !errors.Is(err, ErrUnknownDecision) {
		t.Fatalf("expected ErrUnknownDecision, got %v", err)
	}
}

func TestSubmitDecisionRequiresCommentForNegativeOutcomes(t *testing.T) {
	service := NewDecisionService(nil, nil, nil, nil)

	for _, decision := range []string{models.DecisionRejected, models.DecisionRevisionRequested} {
		_, err := service.SubmitDecision(1, 1, DecisionInput{Decision: decision, Comment: "   "})
		if !errors.Is(err, ErrCommentRequired) {
			t.Fatalf("%s without comment: expected ErrCommentRequired, got %v", decision, err)
		}
	}
}

func reviewStateWithChecked(n int) ChecklistState {
	state := ChecklistState{}
	for _, section := range reviewTemplate.Sections {
		for _, item := range section.Items {
			if !item.Required || n <= 0 {
				continue
			}
			state, _ = reviewTemplate.Toggle(state, section.Name, item.Key, true)
			n--
		}
	}
	return state
}

type capturedEvents struct {
	events []ReportEvent
}

func (c *capturedEvents) Publish(evt ReportEvent) {
	c.events = append(c.events, evt)
}

func TestSubmitDecisionBlocksValidationBelowThreshold(t *testing.T) {
	warmDefaultPolicy(t)
	defer ClearPolicyCache()

	// 10 of 13 required items is 77 percent, under the default 80.
	items, err := EncodeChecklistState(reviewStateWithChecked(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Now()

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `reports` WHERE report_id = \\? AND delete_at IS NULL"),
			columns: []string{"report_id", "author_id", "supervisor_id", "status"},
			rows: [][]driver.Value{
				{int64(7), int64(42), int64(12), models.StatusPendingValidation},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `report_checklists` WHERE report_id = \\? AND kind = \\?"),
			columns: []string{"checklist_id", "report_id", "kind", "items", "create_at", "update_at"},
			rows: [][]driver.Value{
				{int64(4), int64(7), models.ChecklistKindReview, []byte(items), now, now},
			},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	sink := &capturedEvents{}
	service := NewDecisionService(gormDB, NewChecklistService(gormDB), NewHistoryService(gormDB), sink)

	_, err = service.SubmitDecision(12, 7, DecisionInput{Decision: models.DecisionValidated})
	if !errors.Is(err, ErrChecklistBelowThreshold) {
		t.Fatalf("expected ErrChecklistBelowThreshold, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("no event must be published for a refused decision, got %v", sink.events)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmitDecisionValidatesAtomically(t *testing.T) {
	warmDefaultPolicy(t)
	defer ClearPolicyCache()

	// 11 of 13 required items is 85 percent, over the default 80.
	items, err := EncodeChecklistState(reviewStateWithChecked(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Now()

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `reports` WHERE report_id = \\? AND delete_at IS NULL"),
			columns: []string{"report_id", "author_id", "supervisor_id", "status"},
			rows: [][]driver.Value{
				{int64(7), int64(42), int64(12), models.StatusPendingValidation},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `report_checklists` WHERE report_id = \\? AND kind = \\?"),
			columns: []string{"checklist_id", "report_id", "kind", "items", "create_at", "update_at"},
			rows: [][]driver.Value{
				{int64(4), int64(7), models.ChecklistKindReview, []byte(items), now, now},
			},
		},
		{
			kind:         kindExec,
			pattern:      regexp.MustCompile("INSERT INTO `validation_decisions`"),
			lastInsertID: 3,
			rowsAffected: 1,
		},
		{
			kind:         kindExec,
			pattern:      regexp.MustCompile("UPDATE `reports` SET"),
			rowsAffected: 1,
		},
		{
			kind:         kindExec,
			pattern:      regexp.MustCompile("INSERT INTO `report_status_history`"),
			rowsAffected: 1,
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	sink := &capturedEvents{}
	service := NewDecisionService(gormDB, NewChecklistService(gormDB), NewHistoryService(gormDB), sink)

	decision, err := service.SubmitDecision(12, 7, DecisionInput{
		Decision:      models.DecisionValidated,
		Comment:       "Well structured work.",
		NotifyStudent: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.DecisionID != 3 {
		t.Fatalf("expected decision id 3, got %d", decision.DecisionID)
	}
	if decision.ReportID != 7 || decision.ReviewerID != 12 || decision.Decision != models.DecisionValidated {
		t.Fatalf("unexpected decision record: %+v", decision)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(sink.events))
	}
	evt := sink.events[0]
	if evt.Type != EventReportValidated || evt.ReportID != 7 || evt.ActorID != 12 || !evt.NotifyStudent {
		t.Fatalf("unexpected event: %+v", evt)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCanReviewScoping(t *testing.T) {
	report := &models.Report{ReportID: 7, AuthorID: 42, SupervisorID: 12}

	cases := []struct {
		name   string
		userID int
		roleID int
		want   bool
	}{
		{"supervising teacher", 12, models.RoleTeacher, true},
		{"other teacher", 13, models.RoleTeacher, false},
		{"admin", 1, models.RoleAdmin, true},
		{"author", 42, models.RoleStudent, false},
	}
	for _, tc := range cases {
		if got := CanReview(report, tc.userID, tc.roleID); got != tc.want {
			t.Fatalf("%s: CanReview = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSubmitDecisionRejectsTerminalReport(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `reports` WHERE report_id = \\? AND delete_at IS NULL"),
			columns: []string{"report_id", "author_id", "supervisor_id", "status"},
			rows: [][]driver.Value{
				{int64(7), int64(42), int64(12), models.StatusValidated},
			},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	sink := &capturedEvents{}
	service := NewDecisionService(gormDB, NewChecklistService(gormDB), NewHistoryService(gormDB), sink)

	_, err := service.SubmitDecision(12, 7, DecisionInput{Decision: models.DecisionRejected, Comment: "out of scope"})
	if !errors.Is(err, ErrReportAlreadyDecided) {
		t.Fatalf("expected ErrReportAlreadyDecided, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDecisionTargetStatus(t *testing.T) {
	cases := []struct {
		decision string
		status   string
		ok       bool
	}{
		{models.DecisionValidated, models.StatusValidated, true},
		{models.DecisionRejected, models.StatusRejected, true},
		{models.DecisionRevisionRequested, models.StatusRevisionRequested, true},
		{"approved", "", false},
	}
	for _, tc := range cases {
		status, ok := models.DecisionTargetStatus(tc.decision)
		if ok != tc.ok || status != tc.status {
			t.Fatalf("DecisionTargetStatus(%q) = %q, %v; want %q, %v",
				tc.decision, status, ok, tc.status, tc.ok)
		}
	}
}
