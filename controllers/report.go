package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pfe-report-api/config"
	"pfe-report-api/models"
	"pfe-report-api/monitor"
	"pfe-report-api/services"
	"pfe-report-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func uploadBasePath() string {
	base := os.Getenv("UPLOAD_PATH")
	if base == "" {
		base = "./uploads"
	}
	return base
}

// storeUploadedPDF saves the multipart file under a collision-free name,
// validates it is a real PDF and returns the unsaved FileUpload row. The
// caller removes the file if the surrounding operation fails.
func storeUploadedPDF(c *gin.Context, file *multipart.FileHeader, userID int, policy services.Policy) (*models.FileUpload, string, error) {
	if file.Size > policy.MaxFileSizeBytes() {
		return nil, "", fmt.Errorf("file exceeds the %d MB limit", policy.MaxFileSizeMB)
	}
	if !utils.IsPDFContentType(file.Header.Get("Content-Type")) {
		return nil, "", errors.New("only PDF files are accepted")
	}

	dir := filepath.Join(uploadBasePath(), "reports", strconv.Itoa(userID))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, "", fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	storedPath := filepath.Join(dir, utils.StoredFilename(file.Filename))
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		return nil, "", fmt.Errorf("failed to store file: %w", err)
	}

	if err := utils.ValidatePDFFile(storedPath); err != nil {
		os.Remove(storedPath)
		return nil, "", err
	}

	hash, err := utils.FileSHA256(storedPath)
	if err != nil {
		os.Remove(storedPath)
		return nil, "", fmt.Errorf("failed to hash file: %w", err)
	}

	now := time.Now()
	upload := &models.FileUpload{
		OriginalName: file.Filename,
		StoredPath:   storedPath,
		FileSize:     file.Size,
		MimeType:     "application/pdf",
		FileHash:     hash,
		UploadedBy:   userID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}
	return upload, storedPath, nil
}

// SubmitReport handles the final atomic submission: metadata fields,
// keywords and checklist as JSON-encoded parts, plus the PDF file.
func SubmitReport(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	meta := services.ReportMetadata{
		Title:           utils.SanitizeInput(c.PostForm("title")),
		AuthorFirstName: utils.SanitizeInput(c.PostForm("author_first_name")),
		AuthorLastName:  utils.SanitizeInput(c.PostForm("author_last_name")),
		StudentNumber:   utils.SanitizeInput(c.PostForm("student_number")),
		Email:           utils.SanitizeInput(c.PostForm("email")),
		Specialty:       utils.SanitizeInput(c.PostForm("specialty")),
		AcademicYear:    utils.SanitizeInput(c.PostForm("academic_year")),
		DefenseDate:     utils.SanitizeInput(c.PostForm("defense_date")),
		Abstract:        utils.SanitizeInput(c.PostForm("abstract")),
	}
	if sid, err := strconv.Atoi(c.PostForm("supervisor_id")); err == nil {
		meta.SupervisorID = sid
	}

	if raw := c.PostForm("keywords"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta.Keywords); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "keywords must be a JSON array"})
			return
		}
	}

	var checklist services.ChecklistState
	if raw := c.PostForm("checklist"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &checklist); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "checklist must be a JSON object"})
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A report file is required"})
		return
	}

	policy := services.GetPolicy(config.DB)
	upload, storedPath, err := storeUploadedPDF(c, fileHeader, userID, policy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, fieldErrors, err := wizard.Submit(userID, &services.SubmissionInput{
		Metadata:  &meta,
		Checklist: checklist,
		File:      upload,
	})
	if err != nil {
		os.Remove(storedPath)
		log.Printf("report submission failed for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}
	if len(fieldErrors) > 0 {
		os.Remove(storedPath)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": fieldErrors})
		return
	}

	monitor.ReportSubmissions.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetMySubmissions returns the reports authored by the current user.
func GetMySubmissions(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := c.Query("status")
	year := c.Query("academic_year")

	query := config.DB.Preload("Supervisor").Preload("File").
		Where("author_id = ? AND delete_at IS NULL", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if year != "" {
		query = query.Where("academic_year = ?", year)
	}

	var reports []models.Report
	if err := query.Order("create_at DESC").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reports": reports,
		"total":   len(reports),
	})
}

// GetReport returns one report with its comment thread and validation
// history. Students only see their own reports, and never internal comments.
func GetReport(c *gin.Context) {
	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	var report models.Report
	if err := config.DB.Preload("Author").Preload("Supervisor").Preload("File").
		Preload("Decisions.Reviewer").
		Where("report_id = ? AND delete_at IS NULL", reportID).
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
		return
	}

	if roleID == models.RoleStudent && report.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	thread, err := comments.ListForRole(reportID, roleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comments"})
		return
	}
	report.Comments = thread

	timeline, err := history.Timeline(reportID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	report.History = timeline

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

// ResubmitReport loops a revision_requested report back into validation,
// optionally with a replacement PDF.
func ResubmitReport(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var replacement *models.FileUpload
	var storedPath string
	if fileHeader, err := c.FormFile("file"); err == nil {
		policy := services.GetPolicy(config.DB)
		replacement, storedPath, err = storeUploadedPDF(c, fileHeader, userID, policy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := wizard.Resubmit(userID, reportID, replacement)
	if err != nil {
		if storedPath != "" {
			os.Remove(storedPath)
		}
		switch {
		case errors.Is(err, services.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		case errors.Is(err, services.ErrNotReportAuthor):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, services.ErrNotAwaitingRework):
			c.JSON(http.StatusConflict, gin.H{"error": "Report is not awaiting revision"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resubmit report"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}
