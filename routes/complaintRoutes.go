package routes

import (
	"civicsense-be/config"
	"civicsense-be/controllers"
	"civicsense-be/middlewares"

	"github.com/gin-gonic/gin"
)

// ComplaintRoutes sets up the citizen-facing complaint routes
func ComplaintRoutes(r *gin.Engine) {
	complaint := r.Group("/api/complaints")
	{
		// Public routes
		complaint.GET("/nearby", controllers.GetNearbyComplaints)
		complaint.GET("/:complaintId", controllers.GetComplaint)
		complaint.POST("/:complaintId/upvote", controllers.UpvoteComplaint)

		// Escalation-aware report path
		complaint.POST("/report",
			middlewares.AuthMiddleware(),
			middlewares.ReportRateLimiter(config.DailyReportLimit),
			controllers.ReportComplaint)
		complaint.PUT("/escalate/:complaintId", middlewares.AuthMiddleware(), controllers.EscalateComplaint)
		complaint.GET("/admin/escalated", middlewares.AuthMiddleware(), middlewares.AdminOnly(), controllers.GetEscalatedComplaints)

		// Create uses optional auth so logged-in citizens get their ID attached
		complaint.POST("", middlewares.OptionalAuth(), controllers.CreateComplaint)
	}
}
