package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"
	"civicsense-be/services"
	"civicsense-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	lifecycleOnce sync.Once
	lifecycle     *services.Lifecycle
)

// getLifecycle wires the lifecycle engine to MongoDB, Nominatim and SMTP on
// first use.
func getLifecycle() *services.Lifecycle {
	lifecycleOnce.Do(func() {
		st := store.NewMongoStore(config.ConnectDB())
		if err := st.EnsureIndexes(); err != nil {
			log.Printf("Failed to ensure complaint indexes: %v", err)
		}
		lifecycle = services.NewLifecycle(st, services.NewNominatimGeocoder(), services.NewSMTPNotifier())
	})
	return lifecycle
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case services.IsLimitExceeded(err):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
	}
}

// requestContext returns the per-request timeout context used by every
// handler.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// currentUserID pulls the optional authenticated user out of the gin context.
func currentUserID(c *gin.Context) *primitive.ObjectID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(string)
	if !ok {
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	return &objID
}

// CreateComplaint handles the public complaint submission path
func CreateComplaint(c *gin.Context) {
	var input struct {
		IssueType     string   `json:"issueType" binding:"required"`
		Description   string   `json:"description" binding:"required"`
		Latitude      *float64 `json:"latitude" binding:"required"`
		Longitude     *float64 `json:"longitude" binding:"required"`
		Title         string   `json:"title,omitempty"`
		ReporterEmail string   `json:"reporterEmail,omitempty" binding:"omitempty,email"`
		ImageURL      *string  `json:"imageUrl,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := getLifecycle().Create(ctx, services.CreateInput{
		IssueType:     input.IssueType,
		Description:   input.Description,
		Longitude:     *input.Longitude,
		Latitude:      *input.Latitude,
		Title:         input.Title,
		ReporterEmail: input.ReporterEmail,
		ImageURL:      input.ImageURL,
		CreatedBy:     currentUserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.IsDuplicate {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"isDuplicate": true,
			"message":     "A similar issue already exists nearby. We have upvoted it for you.",
			"complaint":   result.Complaint,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"isDuplicate": false,
		"message":     "Complaint submitted successfully",
		"complaint":   result.Complaint,
	})
}

// GetComplaint retrieves a complaint by its public id
func GetComplaint(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	complaint, err := getLifecycle().Get(ctx, c.Param("complaintId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "complaint": complaint})
}

// UpvoteComplaint atomically bumps the upvote counter
func UpvoteComplaint(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	upvotes, err := getLifecycle().Upvote(ctx, c.Param("complaintId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "upvotes": upvotes, "message": "Upvoted successfully"})
}

// GetNearbyComplaints lists complaints around a point, nearest first
func GetNearbyComplaints(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "lat and lng are required"})
		return
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "lat and lng must be numbers"})
		return
	}

	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius", "0"), 64)

	ctx, cancel := requestContext()
	defer cancel()

	complaints, err := getLifecycle().Nearby(ctx, lng, lat, radius, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(complaints), "complaints": complaints})
}

// ReportComplaint handles the escalation-aware report path: repeated reports
// of the same titled issue by the same reporter bump its report count instead
// of creating duplicates
func ReportComplaint(c *gin.Context) {
	reporter := currentUserID(c)
	if reporter == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}

	var input struct {
		Title         string   `json:"title" binding:"required,max=200"`
		IssueType     string   `json:"issueType,omitempty"`
		Description   string   `json:"description,omitempty"`
		Latitude      *float64 `json:"latitude,omitempty"`
		Longitude     *float64 `json:"longitude,omitempty"`
		ReporterEmail string   `json:"reporterEmail,omitempty" binding:"omitempty,email"`
		ImageURL      *string  `json:"imageUrl,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	in := services.ReportInput{
		ReporterID:    *reporter,
		Title:         input.Title,
		IssueType:     input.IssueType,
		Description:   input.Description,
		ReporterEmail: input.ReporterEmail,
		ImageURL:      input.ImageURL,
	}
	if input.Latitude != nil {
		in.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		in.Longitude = *input.Longitude
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := getLifecycle().RecordReport(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Complaint.ReportCount == 1 {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success":      true,
		"complaint":    result.Complaint,
		"reportCount":  result.Complaint.ReportCount,
		"limitReached": result.LimitReached,
	})
}

// EscalateComplaint performs the explicit escalation action
func EscalateComplaint(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	complaint, err := getLifecycle().Escalate(ctx, c.Param("complaintId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Complaint escalated",
		"complaint": complaint,
	})
}

// GetEscalatedComplaints lists escalated complaints for admins
func GetEscalatedComplaints(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	complaints, total, err := getLifecycle().List(ctx, store.ListFilter{EscalatedOnly: true})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "total": total, "complaints": complaints})
}

// parseStatusQuery normalizes an optional ?status= filter, treating "All" as
// no filter.
func parseStatusQuery(raw string) (models.Status, bool) {
	if raw == "" || raw == "All" {
		return "", true
	}
	return models.ParseStatus(raw)
}
