package controllers

import (
	"errors"
	"net/http"
	"time"

	"pfe-report-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type saveDraftReq struct {
	FormData datatypes.JSON `json:"form_data" binding:"required"`
	File     *struct {
		Name         string `json:"name"`
		Size         int64  `json:"size"`
		Type         string `json:"type"`
		LastModified *int64 `json:"last_modified"`
	} `json:"uploaded_file"`
}

// GetDraft returns the current user's draft snapshot, if any.
func GetDraft(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	draft, err := drafts.Load(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load draft"})
		return
	}
	if draft == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "draft": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "draft": draft})
}

// SaveDraft persists an autosave snapshot. A snapshot identical to the last
// one is suppressed: the response carries saved=false and the stored version
// is unchanged. A failed save returns an error status; the client keeps
// editing and retries on its next timer tick.
func SaveDraft(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req saveDraftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var meta *services.DraftFileMeta
	if req.File != nil && req.File.Name != "" {
		meta = &services.DraftFileMeta{
			Name: req.File.Name,
			Size: req.File.Size,
			Type: req.File.Type,
		}
		if req.File.LastModified != nil {
			t := time.UnixMilli(*req.File.LastModified)
			meta.LastModified = &t
		}
	}

	draft, saved, err := drafts.Save(userID, req.FormData, meta)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"saved":   saved,
		"draft":   draft,
	})
}

// AdvanceDraftStep moves the wizard forward (gated by the step validator)
// or backward (unconditional).
func AdvanceDraftStep(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Direction string `json:"direction" binding:"required,oneof=next previous"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be 'next' or 'previous'"})
		return
	}

	step, fieldErrors, err := wizard.Advance(userID, req.Direction)
	if err != nil {
		if errors.Is(err, services.ErrNoDraft) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No draft in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to advance wizard"})
		return
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"step":    step,
			"errors":  fieldErrors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"step":    step,
	})
}

// DeleteDraft discards the draft explicitly.
func DeleteDraft(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := drafts.Purge(nil, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
