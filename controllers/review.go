package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pfe-report-api/config"
	"pfe-report-api/models"
	"pfe-report-api/monitor"
	"pfe-report-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPendingReports lists reports currently waiting for the supervising
// teacher's decision.
func GetPendingReports(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	roleID, _ := getCurrentRoleID(c)

	status := strings.TrimSpace(c.Query("status"))
	if status == "" {
		status = models.StatusPendingValidation
	}

	query := config.DB.Preload("Author").Preload("File").
		Where("delete_at IS NULL").
		Where("status = ?", status)

	// Admins see everything; teachers only what they supervise.
	if roleID != models.RoleAdmin {
		query = query.Where("supervisor_id = ?", userID)
	}

	var reports []models.Report
	if err := query.Order("submitted_at DESC").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reports": reports,
		"total":   len(reports),
	})
}

// reportForReview loads the report named in the path and applies the same
// supervisor scoping as the pending queue: admins act on any report,
// teachers only on reports they supervise. On failure the response is
// already written.
func reportForReview(c *gin.Context) (*models.Report, bool) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	roleID, _ := getCurrentRoleID(c)

	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return nil, false
	}

	var report models.Report
	if err := config.DB.Where("report_id = ? AND delete_at IS NULL", reportID).
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
		}
		return nil, false
	}

	if !services.CanReview(&report, userID, roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &report, true
}

type toggleChecklistReq struct {
	Section string `json:"section" binding:"required"`
	Key     string `json:"key" binding:"required"`
	Value   *bool  `json:"value" binding:"required"`
}

// ToggleReviewChecklist flips one review checklist item and returns the
// recomputed progress in the same response, so the client never renders a
// stale percentage.
func ToggleReviewChecklist(c *gin.Context) {
	report, ok := reportForReview(c)
	if !ok {
		return
	}

	var req toggleChecklistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	state, progress, err := checklists.ToggleItem(report.ReportID, models.ChecklistKindReview, req.Section, req.Key, *req.Value)
	if err != nil {
		if errors.Is(err, services.ErrUnknownChecklistItem) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown checklist item"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update checklist"})
		return
	}

	policy := services.GetPolicy(config.DB)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"items":        state,
		"progress":     progress,
		"can_validate": services.CanValidate(progress, policy.ReviewThreshold),
	})
}

// GetReviewProgress returns the review checklist with derived progress,
// overall and per section. Reading never creates anything.
func GetReviewProgress(c *gin.Context) {
	report, ok := reportForReview(c)
	if !ok {
		return
	}

	state, err := checklists.StateFor(report.ReportID, models.ChecklistKindReview)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load checklist"})
		return
	}

	template, _ := services.TemplateFor(models.ChecklistKindReview)
	progress := template.Progress(state)
	policy := services.GetPolicy(config.DB)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"items":        state,
		"progress":     progress,
		"sections":     template.SectionProgress(state),
		"can_validate": services.CanValidate(progress, policy.ReviewThreshold),
		"threshold":    policy.ReviewThreshold,
	})
}

type validateReportReq struct {
	Decision      string `json:"decision" binding:"required"`
	Comments      string `json:"comments"`
	Deadline      string `json:"deadline"`
	NotifyStudent bool   `json:"notify_student"`
}

// ValidateReport records a reviewer decision through the decision gate.
func ValidateReport(c *gin.Context) {
	report, ok := reportForReview(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)

	var req validateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	input := services.DecisionInput{
		Decision:      strings.ToLower(strings.TrimSpace(req.Decision)),
		Comment:       req.Comments,
		NotifyStudent: req.NotifyStudent,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Deadline must be YYYY-MM-DD"})
			return
		}
		input.Deadline = &deadline
	}

	decision, err := decisions.SubmitDecision(userID, report.ReportID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownDecision):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be validated, rejected or revision_requested"})
		case errors.Is(err, services.ErrCommentRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "A comment is required for this decision"})
		case errors.Is(err, services.ErrChecklistBelowThreshold):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Review checklist is below the validation threshold"})
		case errors.Is(err, services.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		case errors.Is(err, services.ErrReportAlreadyDecided), errors.Is(err, services.ErrReportNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Report is not awaiting validation"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record decision"})
		}
		return
	}

	monitor.ReportDecisions.WithLabelValues(input.Decision).Inc()

	var updated models.Report
	if err := config.DB.Preload("Author").Preload("Supervisor").Preload("File").
		First(&updated, report.ReportID).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"decision": decision,
			"report":   updated,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"decision": decision,
	})
}
