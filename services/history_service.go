package services

import (
	"time"

	"pfe-report-api/models"

	"gorm.io/gorm"
)

// HistoryService appends lifecycle transitions to report_status_history.
// Entries are never edited or deleted through this service.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record appends one transition. It takes the caller's transaction so the
// entry commits or rolls back with the transition it describes.
func (s *HistoryService) Record(tx *gorm.DB, reportID int, oldStatus *string, newStatus string, changedBy int, reason *string) error {
	if tx == nil {
		tx = s.db
	}
	entry := models.ReportStatusHistory{
		ReportID:  reportID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	return tx.Create(&entry).Error
}

// Timeline returns a report's history, newest first.
func (s *HistoryService) Timeline(reportID int) ([]models.ReportStatusHistory, error) {
	var entries []models.ReportStatusHistory
	err := s.db.Preload("Actor").
		Where("report_id = ?", reportID).
		Order("created_at DESC, history_id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
