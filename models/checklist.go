package models

import (
	"time"

	"gorm.io/datatypes"
)

// Checklist kinds. One submission checklist and one review checklist
// exist per report.
const (
	ChecklistKindSubmission = "submission"
	ChecklistKindReview     = "review"
)

// ReportChecklist stores the raw boolean state of a checklist as JSON:
// section name -> item key -> bool. Progress is always derived from the
// booleans, never persisted.
type ReportChecklist struct {
	ChecklistID int            `gorm:"primaryKey;column:checklist_id" json:"checklist_id"`
	ReportID    int            `gorm:"column:report_id" json:"report_id"`
	Kind        string         `gorm:"column:kind" json:"kind"`
	Items       datatypes.JSON `gorm:"column:items" json:"items"`
	CreateAt    time.Time      `gorm:"column:create_at" json:"create_at"`
	UpdateAt    time.Time      `gorm:"column:update_at" json:"update_at"`
}

// TableName specifies the table name for ReportChecklist.
func (ReportChecklist) TableName() string {
	return "report_checklists"
}
