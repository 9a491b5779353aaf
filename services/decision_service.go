package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pfe-report-api/models"

	"gorm.io/gorm"
)

var (
	ErrReportNotPending        = errors.New("report is not awaiting validation")
	ErrReportAlreadyDecided    = errors.New("report already has a final decision")
	ErrCommentRequired         = errors.New("a comment is required for this decision")
	ErrChecklistBelowThreshold = errors.New("review checklist is below the validation threshold")
	ErrUnknownDecision         = errors.New("unknown decision type")
)

// DecisionInput carries one reviewer decision through the gate.
type DecisionInput struct {
	Decision      string
	Comment       string
	Deadline      *time.Time
	NotifyStudent bool
}

// DecisionService is the gate in front of validate/reject/revision-request.
// It checks preconditions, records the immutable decision, moves the report
// status and appends history inside one transaction, then emits the domain
// event consumed by the notification dispatcher.
type DecisionService struct {
	db         *gorm.DB
	checklists *ChecklistService
	history    *HistoryService
	events     EventPublisher
}

func NewDecisionService(db *gorm.DB, checklists *ChecklistService, history *HistoryService, events EventPublisher) *DecisionService {
	return &DecisionService{db: db, checklists: checklists, history: history, events: events}
}

// CanValidate reports whether the review checklist progress meets the
// validation threshold.
func CanValidate(progress ChecklistProgress, threshold int) bool {
	return progress.Percentage >= threshold
}

// CanReview reports whether a user may act on a report's review surface.
// Admins always may; teachers only for reports they supervise. This is the
// same scoping the pending queue applies.
func CanReview(report *models.Report, userID, roleID int) bool {
	if roleID == models.RoleAdmin {
		return true
	}
	return roleID == models.RoleTeacher && report.SupervisorID == userID
}

// SubmitDecision records one decision against a pending report. The review
// checklist progress is read inside the same transaction, so the gate always
// judges the value as of the moment of submission, never one captured before
// the last toggle settled.
func (s *DecisionService) SubmitDecision(reviewerID, reportID int, in DecisionInput) (*models.ValidationDecision, error) {
	targetStatus, ok := models.DecisionTargetStatus(in.Decision)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDecision, in.Decision)
	}

	comment := strings.TrimSpace(in.Comment)
	if comment == "" &&
		(in.Decision == models.DecisionRejected || in.Decision == models.DecisionRevisionRequested) {
		return nil, ErrCommentRequired
	}

	var decision models.ValidationDecision

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.Where("report_id = ? AND delete_at IS NULL", reportID).First(&report).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReportNotFound
			}
			return err
		}

		if models.IsTerminalStatus(report.Status) {
			return ErrReportAlreadyDecided
		}
		if !models.CanTransition(report.Status, targetStatus) {
			return ErrReportNotPending
		}

		if in.Decision == models.DecisionValidated {
			progress, err := s.checklists.ProgressFor(tx, reportID, models.ChecklistKindReview)
			if err != nil {
				return err
			}
			if !CanValidate(progress, GetPolicy(tx).ReviewThreshold) {
				return ErrChecklistBelowThreshold
			}
		}

		now := time.Now()
		decision = models.ValidationDecision{
			ReportID:   reportID,
			ReviewerID: reviewerID,
			Decision:   in.Decision,
			Deadline:   in.Deadline,
			DecidedAt:  now,
		}
		if comment != "" {
			decision.Comment = &comment
		}
		if err := tx.Create(&decision).Error; err != nil {
			return fmt.Errorf("failed to save decision record: %w", err)
		}

		if err := tx.Model(&models.Report{}).
			Where("report_id = ?", report.ReportID).
			Updates(map[string]interface{}{
				"status":    targetStatus,
				"update_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update report status: %w", err)
		}

		oldStatus := report.Status
		var reason *string
		if comment != "" {
			reason = &comment
		}
		return s.history.Record(tx, report.ReportID, &oldStatus, targetStatus, reviewerID, reason)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ReportEvent{
		Type:          decisionEventType(in.Decision),
		ReportID:      reportID,
		ActorID:       reviewerID,
		Comment:       comment,
		Deadline:      in.Deadline,
		NotifyStudent: in.NotifyStudent,
	})

	return &decision, nil
}

func decisionEventType(decision string) EventType {
	switch decision {
	case models.DecisionValidated:
		return EventReportValidated
	case models.DecisionRejected:
		return EventReportRejected
	default:
		return EventRevisionRequested
	}
}
