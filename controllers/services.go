package controllers

import (
	"pfe-report-api/config"
	"pfe-report-api/services"

	"github.com/gin-gonic/gin"
)

var (
	notifications *services.NotificationService
	drafts        *services.DraftService
	checklists    *services.ChecklistService
	history       *services.HistoryService
	wizard        *services.WizardService
	decisions     *services.DecisionService
	comments      *services.CommentService
)

// InitServices wires the service layer onto the shared DB handle. Call once
// from main after config.InitDB. The returned dispatcher must be started
// (Run) and stopped (Close) by the caller.
func InitServices() *services.NotificationService {
	db := config.DB

	notifications = services.NewNotificationService(db)
	drafts = services.NewDraftService(db)
	checklists = services.NewChecklistService(db)
	history = services.NewHistoryService(db)
	wizard = services.NewWizardService(db, drafts, checklists, history, notifications)
	decisions = services.NewDecisionService(db, checklists, history, notifications)
	comments = services.NewCommentService(db, notifications)

	return notifications
}

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		switch t := v.(type) {
		case int:
			return t, true
		case int64:
			return int(t), true
		case float64:
			return int(t), true
		case uint:
			return int(t), true
		}
	}
	return 0, false
}

func getCurrentRoleID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("roleID"); ok {
		switch t := v.(type) {
		case int:
			return t, true
		case int64:
			return int(t), true
		case float64:
			return int(t), true
		case uint:
			return int(t), true
		}
	}
	return 0, false
}
