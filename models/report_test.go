package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusSubmitted, StatusPendingValidation, true},
		{StatusPendingValidation, StatusValidated, true},
		{StatusPendingValidation, StatusRejected, true},
		{StatusPendingValidation, StatusRevisionRequested, true},
		{StatusRevisionRequested, StatusPendingValidation, true},

		// no skipping ahead
		{StatusDraft, StatusPendingValidation, false},
		{StatusDraft, StatusValidated, false},
		// no moving out of terminal states
		{StatusValidated, StatusPendingValidation, false},
		{StatusRejected, StatusPendingValidation, false},
		{StatusValidated, StatusRejected, false},
		// no backwards moves
		{StatusPendingValidation, StatusSubmitted, false},
		{StatusSubmitted, StatusDraft, false},
		// unknown statuses never transition
		{"archived", StatusValidated, false},
		{StatusDraft, "archived", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusValidated))
	assert.True(t, IsTerminalStatus(StatusRejected))
	assert.False(t, IsTerminalStatus(StatusDraft))
	assert.False(t, IsTerminalStatus(StatusPendingValidation))
	assert.False(t, IsTerminalStatus(StatusRevisionRequested))
}

func TestIsValidCommentType(t *testing.T) {
	for _, valid := range []string{
		CommentTypeFeedback, CommentTypeRevision, CommentTypeApproval, CommentTypeInternal,
	} {
		assert.True(t, IsValidCommentType(valid), valid)
	}
	assert.False(t, IsValidCommentType("note"))
	assert.False(t, IsValidCommentType(""))
}
