package models

import "time"

// ReportStatusHistory tracks historical status changes for reports.
// Rows are append-only: nothing in the service layer updates or deletes them.
type ReportStatusHistory struct {
	HistoryID int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	ReportID  int       `gorm:"column:report_id" json:"report_id"`
	OldStatus *string   `gorm:"column:old_status" json:"old_status"`
	NewStatus string    `gorm:"column:new_status" json:"new_status"`
	ChangedBy int       `gorm:"column:changed_by" json:"changed_by"`
	Reason    *string   `gorm:"column:reason" json:"reason"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Actor *User `gorm:"foreignKey:ChangedBy" json:"actor,omitempty"`
}

// TableName specifies the table for ReportStatusHistory.
func (ReportStatusHistory) TableName() string {
	return "report_status_history"
}
