package controllers

import (
	"net/http"
	"strconv"

	"civicsense-be/models"
	"civicsense-be/store"

	"github.com/gin-gonic/gin"
)

// GetAllComplaints is the admin triage listing: filters, paging and the
// status/resolution summary
func GetAllComplaints(c *gin.Context) {
	status, ok := parseStatusQuery(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid status filter"})
		return
	}

	var priority models.Priority
	if p := c.Query("priority"); p != "" && p != "All" {
		switch models.Priority(p) {
		case models.High, models.Medium, models.Low:
			priority = models.Priority(p)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid priority filter"})
			return
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	ctx, cancel := requestContext()
	defer cancel()

	complaints, total, err := getLifecycle().List(ctx, store.ListFilter{
		Status:   status,
		Priority: priority,
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := getLifecycle().AdminStats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"total":      total,
		"page":       page,
		"pages":      pages,
		"stats":      stats,
		"complaints": complaints,
	})
}

// UpdateComplaintStatus advances (or rewinds) a complaint's status
func UpdateComplaintStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	complaint, emailSent, err := getLifecycle().ChangeStatus(ctx, c.Param("complaintId"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Status updated to \"" + input.Status + "\""
	if emailSent {
		message += ". Resolution email sent to citizen"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"complaint": complaint,
		"emailSent": emailSent,
	})
}

// AssignComplaintDepartment records the handling department
func AssignComplaintDepartment(c *gin.Context) {
	var input struct {
		Department string `json:"department" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Department is required"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	complaint, err := getLifecycle().AssignDepartment(ctx, c.Param("complaintId"), input.Department)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Assigned to " + input.Department,
		"complaint": complaint,
	})
}
