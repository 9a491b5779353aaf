package routes

import (
	"pfe-report-api/controllers"
	"pfe-report-api/middleware"
	"pfe-report-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "PFE Report API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Reports
			reports := protected.Group("/reports")
			{
				// Draft autosave and wizard (students)
				reports.GET("/draft", middleware.RequireRole(models.RoleStudent), controllers.GetDraft)
				reports.PUT("/draft", middleware.RequireRole(models.RoleStudent), controllers.SaveDraft)
				reports.PUT("/draft/step", middleware.RequireRole(models.RoleStudent), controllers.AdvanceDraftStep)
				reports.DELETE("/draft", middleware.RequireRole(models.RoleStudent), controllers.DeleteDraft)

				// Submission lifecycle
				reports.POST("/submit", middleware.RequireRole(models.RoleStudent), controllers.SubmitReport)
				reports.GET("/my-submissions", controllers.GetMySubmissions)
				reports.POST("/:id/resubmit", middleware.RequireRole(models.RoleStudent), controllers.ResubmitReport)

				// Teacher review
				reports.GET("/pending", middleware.RequireRole(models.RoleTeacher, models.RoleAdmin), controllers.GetPendingReports)
				reports.PUT("/:id/checklist", middleware.RequireRole(models.RoleTeacher, models.RoleAdmin), controllers.ToggleReviewChecklist)
				reports.GET("/:id/checklist/progress", middleware.RequireRole(models.RoleTeacher, models.RoleAdmin), controllers.GetReviewProgress)
				reports.PUT("/:id/validate", middleware.RequireRole(models.RoleTeacher, models.RoleAdmin), controllers.ValidateReport)

				// Comment thread
				reports.POST("/:id/comments", controllers.CreateComment)

				// Teacher notification poll
				reports.GET("/my-teacher-notifications", controllers.GetTeacherNotifications)

				// Detail last so the static routes above match first
				reports.GET("/:id", controllers.GetReport)
			}

			// Comments (edit/delete by id)
			commentGroup := protected.Group("/comments")
			{
				commentGroup.PUT("/:id", controllers.UpdateComment)
				commentGroup.DELETE("/:id", controllers.DeleteComment)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
				notifications.DELETE("/:id", controllers.DeleteNotification)
			}
		}
	}
}
