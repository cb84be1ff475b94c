package routes

import (
	"civicsense-be/controllers"
	"civicsense-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin triage routes. All of them require a JWT
// with the admin role.
func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		admin.GET("/complaints", controllers.GetAllComplaints)
		admin.PATCH("/complaints/:complaintId/status", controllers.UpdateComplaintStatus)
		admin.PATCH("/complaints/:complaintId/assign", controllers.AssignComplaintDepartment)
	}
}
