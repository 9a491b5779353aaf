package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"pfe-report-api/config"
	"pfe-report-api/models"
	"pfe-report-api/services"

	"github.com/gin-gonic/gin"
)

type createCommentReq struct {
	Type string `json:"type" binding:"required"`
	Body string `json:"body" binding:"required"`
}

// CreateComment appends a comment to a report's thread. Students cannot
// write internal comments.
func CreateComment(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	roleID, _ := getCurrentRoleID(c)

	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var req createCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if roleID == models.RoleStudent && req.Type == models.CommentTypeInternal {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var author models.User
	if err := config.DB.Where("user_id = ?", userID).First(&author).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	comment, err := comments.Add(reportID, &author, req.Type, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		case errors.Is(err, services.ErrInvalidCommentType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment type"})
		case errors.Is(err, services.ErrEmptyCommentBody):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Comment body must not be empty"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"comment": comment,
	})
}

// UpdateComment edits a comment. Only its author may edit.
func UpdateComment(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || commentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	comment, err := comments.Update(commentID, userID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		case errors.Is(err, services.ErrNotCommentAuthor):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the comment author may edit it"})
		case errors.Is(err, services.ErrEmptyCommentBody):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Comment body must not be empty"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"comment": comment,
	})
}

// DeleteComment removes a comment. Only its author may delete.
func DeleteComment(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || commentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	if err := comments.Remove(commentID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		case errors.Is(err, services.ErrNotCommentAuthor):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the comment author may delete it"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
