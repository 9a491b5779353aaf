package services

import "time"

// EventType identifies a report lifecycle event.
type EventType string

const (
	EventReportSubmitted   EventType = "report_submitted"
	EventReportResubmitted EventType = "report_resubmitted"
	EventReportValidated   EventType = "report_validated"
	EventReportRejected    EventType = "report_rejected"
	EventRevisionRequested EventType = "revision_requested"
	EventCommentAdded      EventType = "comment_added"
)

// ReportEvent is the discrete domain event emitted by the decision gate,
// the submission flow and the comment thread. The notification dispatcher
// consumes events independently of the emitting transaction.
type ReportEvent struct {
	Type          EventType
	ReportID      int
	ActorID       int
	Comment       string
	Deadline      *time.Time
	NotifyStudent bool
}

// EventPublisher decouples event emitters from the dispatcher consuming them.
type EventPublisher interface {
	Publish(ReportEvent)
}
