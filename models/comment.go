package models

import "time"

// Comment types exchanged on a report. Internal comments are never shown
// to the report's author.
const (
	CommentTypeFeedback = "feedback"
	CommentTypeRevision = "revision"
	CommentTypeApproval = "approval"
	CommentTypeInternal = "internal"
)

type ReportComment struct {
	CommentID   int        `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	ReportID    int        `gorm:"column:report_id" json:"report_id"`
	AuthorID    int        `gorm:"column:author_id" json:"author_id"`
	AuthorRole  int        `gorm:"column:author_role" json:"author_role"`
	CommentType string     `gorm:"column:comment_type" json:"comment_type"`
	Body        string     `gorm:"column:body" json:"body"`
	CreateAt    time.Time  `gorm:"column:create_at" json:"created_at"`
	EditedAt    *time.Time `gorm:"column:edited_at" json:"edited_at,omitempty"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"-"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName specifies the table name for ReportComment.
func (ReportComment) TableName() string {
	return "report_comments"
}

// IsValidCommentType reports whether the given type is one of the known
// comment types.
func IsValidCommentType(t string) bool {
	switch t {
	case CommentTypeFeedback, CommentTypeRevision, CommentTypeApproval, CommentTypeInternal:
		return true
	}
	return false
}
