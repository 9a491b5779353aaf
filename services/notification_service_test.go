package services

import (
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
)

func TestApplyPlaceholders(t *testing.T) {
	got := applyPlaceholders("Your report \"{{title}}\" needs changes. {{comment}} Deadline: {{deadline}}.", map[string]string{
		"title":    "Predictive Maintenance",
		"comment":  "Chapter 3 is missing measurements.",
		"deadline": "15/10/2025",
	})
	want := "Your report \"Predictive Maintenance\" needs changes. Chapter 3 is missing measurements. Deadline: 15/10/2025."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// An empty value collapses without leaving double spaces behind.
	got = applyPlaceholders("Validated. {{comment}}", map[string]string{"comment": ""})
	if got != "Validated." {
		t.Fatalf("got %q", got)
	}
}

func TestEveryEventHasATemplate(t *testing.T) {
	events := []EventType{
		EventReportSubmitted,
		EventReportResubmitted,
		EventReportValidated,
		EventReportRejected,
		EventRevisionRequested,
		EventCommentAdded,
	}
	for _, evt := range events {
		tmpl, ok := eventTemplates[evt]
		if !ok {
			t.Fatalf("missing template for %s", evt)
		}
		if !tmpl.ToStudent && !tmpl.ToTeacher {
			t.Fatalf("template for %s reaches nobody", evt)
		}
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	steps := []*queryStep{
		{
			kind:         kindExec,
			pattern:      regexp.MustCompile("UPDATE `notifications` SET"),
			rowsAffected: 1,
		},
		{
			kind:         kindExec,
			pattern:      regexp.MustCompile("UPDATE `notifications` SET"),
			rowsAffected: 0,
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewNotificationService(gormDB)
	if err := service.MarkRead(42, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second call hits an already-read row and still succeeds.
	if err := service.MarkRead(42, 7); err != nil {
		t.Fatalf("second mark must be a no-op, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUnreadCountIsDerived(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `notifications` WHERE user_id = \\? AND is_read = 0"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(3)}},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewNotificationService(gormDB)
	n, err := service.UnreadCount(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 unread, got %d", n)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestFormalEmailEscapesContent(t *testing.T) {
	html := buildFormalEmailHTML("Report validated", "Amira <script>", "Comment with <b>markup</b>")
	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>markup</b>") {
		t.Fatal("user content must be escaped")
	}
	if !strings.Contains(html, "Dear Amira") {
		t.Fatal("greeting missing")
	}
}
