package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReportDraft is the autosaved snapshot of an in-progress submission.
// One active draft exists per student. The fingerprint is a sha256 of the
// serialized form data plus the uploaded file name; a save with an unchanged
// fingerprint is a no-op and does not bump the version.
type ReportDraft struct {
	DraftID      int            `gorm:"primaryKey;column:draft_id" json:"draft_id"`
	UserID       int            `gorm:"column:user_id;uniqueIndex" json:"user_id"`
	FormData     datatypes.JSON `gorm:"column:form_data" json:"form_data"`
	FileName     *string        `gorm:"column:file_name" json:"file_name,omitempty"`
	FileSize     *int64         `gorm:"column:file_size" json:"file_size,omitempty"`
	FileType     *string        `gorm:"column:file_type" json:"file_type,omitempty"`
	FileModified *time.Time     `gorm:"column:file_modified" json:"file_modified,omitempty"`
	Fingerprint  string         `gorm:"column:fingerprint" json:"-"`
	Version      int            `gorm:"column:version" json:"version"`
	CurrentStep  string         `gorm:"column:current_step" json:"current_step"`
	SavedAt      time.Time      `gorm:"column:saved_at" json:"saved_at"`
	CreateAt     time.Time      `gorm:"column:create_at" json:"create_at"`
}

// TableName specifies the table name for ReportDraft.
func (ReportDraft) TableName() string {
	return "report_drafts"
}
