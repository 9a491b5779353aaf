package models

import (
	"time"

	"gorm.io/datatypes"
)

// Report lifecycle statuses.
const (
	StatusDraft             = "draft"
	StatusSubmitted         = "submitted"
	StatusPendingValidation = "pending_validation"
	StatusRevisionRequested = "revision_requested"
	StatusValidated         = "validated"
	StatusRejected          = "rejected"
)

// reportTransitions is the only legal movement between report statuses.
// validated and rejected are terminal.
var reportTransitions = map[string][]string{
	StatusDraft:             {StatusSubmitted},
	StatusSubmitted:         {StatusPendingValidation},
	StatusPendingValidation: {StatusValidated, StatusRejected, StatusRevisionRequested},
	StatusRevisionRequested: {StatusPendingValidation},
}

// CanTransition reports whether a report may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range reportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further decision can be recorded.
func IsTerminalStatus(status string) bool {
	return status == StatusValidated || status == StatusRejected
}

// Report represents an end-of-study project report submission.
type Report struct {
	ReportID     int            `gorm:"primaryKey;column:report_id" json:"report_id"`
	AuthorID     int            `gorm:"column:author_id" json:"author_id"`
	SupervisorID int            `gorm:"column:supervisor_id" json:"supervisor_id"`
	Specialty    string         `gorm:"column:specialty" json:"specialty"`
	AcademicYear string         `gorm:"column:academic_year" json:"academic_year"`
	Title        string         `gorm:"column:title" json:"title"`
	Abstract     string         `gorm:"column:abstract" json:"abstract"`
	Keywords     datatypes.JSON `gorm:"column:keywords" json:"keywords"`
	DefenseDate  *time.Time     `gorm:"column:defense_date" json:"defense_date,omitempty"`
	FileID       *int           `gorm:"column:file_id" json:"file_id,omitempty"`
	Status       string         `gorm:"column:status" json:"status"`
	SubmittedAt  *time.Time     `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreateAt     time.Time      `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time      `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time     `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Author     *User                 `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Supervisor *User                 `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	File       *FileUpload           `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Comments   []ReportComment       `gorm:"foreignKey:ReportID" json:"comments,omitempty"`
	Decisions  []ValidationDecision  `gorm:"foreignKey:ReportID" json:"validation_history,omitempty"`
	History    []ReportStatusHistory `gorm:"foreignKey:ReportID" json:"status_history,omitempty"`
}

// TableName specifies the table name for Report.
func (Report) TableName() string {
	return "reports"
}
