package services

import (
	"errors"
	"strings"
	"time"

	"pfe-report-api/models"

	"gorm.io/gorm"
)

var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrNotCommentAuthor   = errors.New("only the comment author may modify it")
	ErrInvalidCommentType = errors.New("invalid comment type")
	ErrEmptyCommentBody   = errors.New("comment body must not be empty")
)

// CommentService manages the typed comment thread attached to a report.
// Identity spoofing is not defended here; the auth middleware supplies the
// acting user.
type CommentService struct {
	db     *gorm.DB
	events EventPublisher
}

func NewCommentService(db *gorm.DB, events EventPublisher) *CommentService {
	return &CommentService{db: db, events: events}
}

// Add appends a comment and notifies the counterpart party unless the
// comment is internal.
func (s *CommentService) Add(reportID int, author *models.User, commentType, body string) (*models.ReportComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyCommentBody
	}
	if !models.IsValidCommentType(commentType) {
		return nil, ErrInvalidCommentType
	}

	var report models.Report
	if err := s.db.Where("report_id = ? AND delete_at IS NULL", reportID).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	comment := models.ReportComment{
		ReportID:    reportID,
		AuthorID:    author.UserID,
		AuthorRole:  author.RoleID,
		CommentType: commentType,
		Body:        body,
		CreateAt:    time.Now(),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	if commentType != models.CommentTypeInternal {
		s.events.Publish(ReportEvent{
			Type:     EventCommentAdded,
			ReportID: reportID,
			ActorID:  author.UserID,
			Comment:  body,
		})
	}

	return &comment, nil
}

// Update edits a comment body. Only the author may edit; edited_at records
// the change.
func (s *CommentService) Update(commentID, authorID int, body string) (*models.ReportComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyCommentBody
	}

	var comment models.ReportComment
	if err := s.db.Where("comment_id = ? AND delete_at IS NULL", commentID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.AuthorID != authorID {
		return nil, ErrNotCommentAuthor
	}

	now := time.Now()
	if err := s.db.Model(&models.ReportComment{}).
		Where("comment_id = ?", commentID).
		Updates(map[string]interface{}{
			"body":      body,
			"edited_at": now,
		}).Error; err != nil {
		return nil, err
	}

	comment.Body = body
	comment.EditedAt = &now
	return &comment, nil
}

// Remove soft-deletes a comment. Only the author may delete.
func (s *CommentService) Remove(commentID, authorID int) error {
	var comment models.ReportComment
	if err := s.db.Where("comment_id = ? AND delete_at IS NULL", commentID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.AuthorID != authorID {
		return ErrNotCommentAuthor
	}

	return s.db.Model(&models.ReportComment{}).
		Where("comment_id = ?", commentID).
		Update("delete_at", time.Now()).Error
}

// ListForRole returns a report's comments for a viewer role. Internal
// comments are stripped from any student view.
func (s *CommentService) ListForRole(reportID, viewerRole int) ([]models.ReportComment, error) {
	q := s.db.Preload("Author").
		Where("report_id = ? AND delete_at IS NULL", reportID)
	if viewerRole == models.RoleStudent {
		q = q.Where("comment_type <> ?", models.CommentTypeInternal)
	}

	var comments []models.ReportComment
	if err := q.Order("create_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
