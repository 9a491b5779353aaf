package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"pfe-report-api/config"
	"pfe-report-api/models"
	"pfe-report-api/monitor"

	"gorm.io/gorm"
)

type notifTemplate struct {
	Title     string
	Body      string
	Level     string // info|success|warning|error
	ToStudent bool
	ToTeacher bool
}

// Event templates. {{placeholders}} are substituted from the report and the
// event payload.
var eventTemplates = map[EventType]notifTemplate{
	EventReportSubmitted: {
		Title:     "Report submitted",
		Body:      "The report \"{{title}}\" was submitted on {{submitted_at}} and is awaiting validation.",
		Level:     "success",
		ToStudent: true,
		ToTeacher: true,
	},
	EventReportResubmitted: {
		Title:     "Report resubmitted",
		Body:      "The revised report \"{{title}}\" was resubmitted and is awaiting validation.",
		Level:     "info",
		ToTeacher: true,
	},
	EventReportValidated: {
		Title:     "Report validated",
		Body:      "Your report \"{{title}}\" has been validated. {{comment}}",
		Level:     "success",
		ToStudent: true,
	},
	EventReportRejected: {
		Title:     "Report rejected",
		Body:      "Your report \"{{title}}\" was rejected. Reason: {{comment}}",
		Level:     "error",
		ToStudent: true,
	},
	EventRevisionRequested: {
		Title:     "Revision requested",
		Body:      "Your report \"{{title}}\" needs changes before validation. {{comment}} Deadline: {{deadline}}.",
		Level:     "warning",
		ToStudent: true,
	},
	EventCommentAdded: {
		Title:     "New comment",
		Body:      "A new comment was added on \"{{title}}\": {{comment}}",
		Level:     "info",
		ToStudent: true,
		ToTeacher: true,
	},
}

func applyPlaceholders(text string, data map[string]string) string {
	result := text
	for key, value := range data {
		placeholder := "{{" + key + "}}"
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(result), " "))
}

// NotificationService consumes report events and maintains per-user
// notifications. Rows are only mutated by mark-as-read and delete, never by
// reading.
type NotificationService struct {
	db     *gorm.DB
	events chan ReportEvent
	done   chan struct{}
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:     db,
		events: make(chan ReportEvent, 64),
		done:   make(chan struct{}),
	}
}

// Publish enqueues an event for the dispatcher. Delivery is at-least-once
// from the consumer's point of view: polling plus idempotent mark-as-read.
func (s *NotificationService) Publish(evt ReportEvent) {
	select {
	case s.events <- evt:
	default:
		// Dispatcher is saturated; handle inline rather than dropping.
		s.handle(evt)
	}
}

// Run consumes events until Close is called. Start it once from main.
func (s *NotificationService) Run() {
	for evt := range s.events {
		s.handle(evt)
	}
	close(s.done)
}

// Close stops the dispatcher after draining queued events.
func (s *NotificationService) Close() {
	close(s.events)
	<-s.done
}

func (s *NotificationService) handle(evt ReportEvent) {
	tmpl, ok := eventTemplates[evt.Type]
	if !ok {
		log.Printf("notification: no template for event %s", evt.Type)
		return
	}

	var report models.Report
	if err := s.db.Preload("Author").Preload("Supervisor").
		Where("report_id = ?", evt.ReportID).First(&report).Error; err != nil {
		log.Printf("notification: report %d not found for event %s: %v", evt.ReportID, evt.Type, err)
		return
	}

	data := map[string]string{
		"title":        report.Title,
		"comment":      strings.TrimSpace(evt.Comment),
		"deadline":     "-",
		"submitted_at": "-",
	}
	if evt.Deadline != nil {
		data["deadline"] = evt.Deadline.Format("02/01/2006")
	}
	if report.SubmittedAt != nil {
		data["submitted_at"] = report.SubmittedAt.Format("02/01/2006 15:04")
	}

	recipients := make([]*models.User, 0, 2)
	if tmpl.ToStudent && (evt.NotifyStudent || evt.Type == EventReportSubmitted || evt.Type == EventCommentAdded) {
		if report.Author != nil && report.Author.UserID != evt.ActorID {
			recipients = append(recipients, report.Author)
		}
	}
	if tmpl.ToTeacher {
		if report.Supervisor != nil && report.Supervisor.UserID != evt.ActorID {
			recipients = append(recipients, report.Supervisor)
		}
	}
	if len(recipients) == 0 {
		return
	}

	title := applyPlaceholders(tmpl.Title, data)
	body := applyPlaceholders(tmpl.Body, data)
	reportID := uint(report.ReportID)

	emails := make([]string, 0, len(recipients))
	names := make([]string, 0, len(recipients))
	for _, user := range recipients {
		n := models.Notification{
			UserID:          uint(user.UserID),
			Title:           title,
			Message:         body,
			Type:            tmpl.Level,
			RelatedReportID: &reportID,
			IsRead:          false,
			CreateAt:        time.Now(),
		}
		if err := s.db.Create(&n).Error; err != nil {
			log.Printf("notification: failed to store for user %d: %v", user.UserID, err)
			continue
		}
		monitor.NotificationsDispatched.Inc()
		if user.Email != "" {
			emails = append(emails, user.Email)
			names = append(names, strings.TrimSpace(user.UserFname+" "+user.UserLname))
		}
	}

	go func() {
		for i, email := range emails {
			html := buildFormalEmailHTML(title, names[i], body)
			if err := config.SendMail([]string{email}, title, html); err != nil {
				log.Printf("notification email send failed (subject=%q to=%s): %v", title, email, err)
			}
		}
	}()
}

func buildFormalEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Madam, Sir"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = 0")
	}

	var items []models.Notification
	if err := q.Order("create_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead marks one notification read. Marking an already-read
// notification is a no-op, not an error.
func (s *NotificationService) MarkRead(userID uint, notificationID int) error {
	return s.db.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = 0", userID).
		Update("is_read", true).Error
}

// UnreadCount derives the badge counter; it is never stored independently.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = 0", userID).
		Count(&n).Error
	return n, err
}

// Delete removes one notification owned by the user.
func (s *NotificationService) Delete(userID uint, notificationID int) error {
	return s.db.Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{}).Error
}
