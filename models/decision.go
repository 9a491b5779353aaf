package models

import "time"

// Decision outcomes a reviewer may record against a pending report.
const (
	DecisionValidated         = "validated"
	DecisionRejected          = "rejected"
	DecisionRevisionRequested = "revision_requested"
)

// ValidationDecision is the immutable record emitted by the decision gate.
// A new decision supersedes the previous report state; terminal statuses
// accept no further decisions.
type ValidationDecision struct {
	DecisionID int        `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	ReportID   int        `gorm:"column:report_id" json:"report_id"`
	ReviewerID int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	Decision   string     `gorm:"column:decision" json:"decision"`
	Comment    *string    `gorm:"column:comment" json:"comment,omitempty"`
	Deadline   *time.Time `gorm:"column:deadline" json:"deadline,omitempty"`
	DecidedAt  time.Time  `gorm:"column:decided_at" json:"decided_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// TableName specifies the table name for ValidationDecision.
func (ValidationDecision) TableName() string {
	return "validation_decisions"
}

// DecisionTargetStatus maps a decision to the report status it produces.
func DecisionTargetStatus(decision string) (string, bool) {
	switch decision {
	case DecisionValidated:
		return StatusValidated, true
	case DecisionRejected:
		return StatusRejected, true
	case DecisionRevisionRequested:
		return StatusRevisionRequested, true
	}
	return "", false
}
