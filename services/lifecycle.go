package services

import (
	"context"
	"log"
	"strings"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"
	"civicsense-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// casAttempts bounds the re-read-and-retry loops around compare-and-swap
// updates.
const casAttempts = 3

// Lifecycle composes the engine components into the operations the boundary
// layer consumes: create with duplicate detection, status changes with
// timeline recompute and resolution notification, department assignment,
// upvotes, and the repeated-report escalation path.
type Lifecycle struct {
	store    store.ComplaintStore
	detector *DuplicateDetector
	tracker  *EscalationTracker
	geocoder Geocoder
	notifier Notifier
}

func NewLifecycle(s store.ComplaintStore, g Geocoder, n Notifier) *Lifecycle {
	return &Lifecycle{
		store:    s,
		detector: NewDuplicateDetector(s),
		tracker:  NewEscalationTracker(s),
		geocoder: g,
		notifier: n,
	}
}

// CreateInput is an inbound complaint report.
type CreateInput struct {
	IssueType     string
	Description   string
	Longitude     float64
	Latitude      float64
	Title         string
	ReporterEmail string
	ImageURL      *string
	CreatedBy     *primitive.ObjectID
}

// CreateResult is what Create hands back: either the freshly stored
// complaint, or the nearby existing one that absorbed the report as an
// upvote.
type CreateResult struct {
	Complaint   *models.Complaint
	IsDuplicate bool
}

// Create runs duplicate detection first; a hit upvotes the existing complaint
// and creates nothing. A miss validates the description, classifies priority,
// seeds the timeline, reverse-geocodes the location (failure non-fatal) and
// persists the record. The acknowledgment mail is dispatched on a detached
// goroutine so it never blocks the response.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if !models.ValidIssueType(in.IssueType) {
		return nil, validationf("invalid issue type %q", in.IssueType)
	}
	issueType := models.IssueType(in.IssueType)
	pt := models.NewPoint(in.Longitude, in.Latitude)

	existing, err := l.detector.Detect(ctx, issueType, pt)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if _, err := l.store.IncrementUpvotes(ctx, existing.ComplaintID); err != nil {
			return nil, err
		}
		upvoted, err := l.store.GetByComplaintID(ctx, existing.ComplaintID)
		if err != nil {
			return nil, err
		}
		return &CreateResult{Complaint: upvoted, IsDuplicate: true}, nil
	}

	complaint, err := l.createNew(ctx, in, models.Submitted)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Complaint: complaint, IsDuplicate: false}, nil
}

// createNew validates, classifies, geocodes and persists a brand-new
// complaint, then fires the acknowledgment mail. Duplicate detection is the
// caller's concern.
func (l *Lifecycle) createNew(ctx context.Context, in CreateInput, initial models.Status) (*models.Complaint, error) {
	if !models.ValidIssueType(in.IssueType) {
		return nil, validationf("invalid issue type %q", in.IssueType)
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	issueType := models.IssueType(in.IssueType)
	geo := l.reverseGeocode(ctx, in.Longitude, in.Latitude)

	complaint := &models.Complaint{
		IssueType:   issueType,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Location:    models.NewPoint(in.Longitude, in.Latitude),
		Address:     geo.Address,
		Area:        geo.Area,
		City:        geo.City,
		Status:      initial,
		Priority:    ClassifyPriority(issueType),
		Upvotes:     1,
		ReportCount: 1,
		Timeline:    BuildTimeline(initial),
		CreatedBy:   in.CreatedBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if in.ReporterEmail != "" {
		email := in.ReporterEmail
		complaint.ReporterEmail = &email
	}

	if err := l.insertWithFreshID(ctx, complaint); err != nil {
		return nil, err
	}

	if in.ReporterEmail != "" {
		l.dispatchAcknowledgment(complaint)
	}
	return complaint, nil
}

// ChangeStatus moves a complaint to newStatus and recomputes its timeline.
// Escalated is not reachable here (only the explicit escalate action), and
// escalated complaints accept no further transitions. When the target is
// Resolved and the reporter left an email that was not yet notified, a
// resolution mail is attempted; its failure never undoes the status change.
// The returned bool reports whether the mail went out.
func (l *Lifecycle) ChangeStatus(ctx context.Context, complaintID, newStatus string) (*models.Complaint, bool, error) {
	target, ok := models.ParseStatus(newStatus)
	if !ok {
		return nil, false, validationf("invalid status %q", newStatus)
	}
	if target == models.Escalated {
		return nil, false, validationf("status Escalated is only reachable through the escalate action")
	}

	var updated *models.Complaint
	for attempt := 0; attempt < casAttempts; attempt++ {
		c, err := l.store.GetByComplaintID(ctx, complaintID)
		if err != nil {
			if err == store.ErrNotFound {
				return nil, false, &NotFoundError{ComplaintID: complaintID}
			}
			return nil, false, err
		}
		if c.Status == models.Escalated {
			return nil, false, validationf("complaint %s is escalated; no further status changes are allowed", complaintID)
		}

		timeline, err := AdvanceTimeline(c.Timeline, target)
		if err != nil {
			return nil, false, err
		}
		c.Status = target
		c.Timeline = timeline

		if err := l.store.Update(ctx, c); err != nil {
			if err == store.ErrConflict {
				continue
			}
			return nil, false, err
		}
		updated = c
		break
	}
	if updated == nil {
		return nil, false, store.ErrConflict
	}

	emailSent := false
	if target == models.Resolved && updated.ReporterEmail != nil && !updated.EmailNotified {
		emailSent = l.notifyResolution(ctx, updated)
	}
	return updated, emailSent, nil
}

// AssignDepartment records the handling department and raises the status to
// Assigned when it is still below that. Steps 0 and 1 are forced done without
// clearing later steps, which is looser than the Advance semantics.
func (l *Lifecycle) AssignDepartment(ctx context.Context, complaintID, department string) (*models.Complaint, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, validationf("department is required")
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		c, err := l.store.GetByComplaintID(ctx, complaintID)
		if err != nil {
			if err == store.ErrNotFound {
				return nil, &NotFoundError{ComplaintID: complaintID}
			}
			return nil, err
		}
		if c.Status == models.Escalated {
			return nil, validationf("complaint %s is escalated; assignment is not allowed", complaintID)
		}

		c.AssignedDepartment = &department
		curIdx, _ := c.Status.Order()
		assignedIdx, _ := models.Assigned.Order()
		if curIdx < assignedIdx {
			c.Status = models.Assigned
		}

		now := time.Now()
		for i := 0; i < 2 && i < len(c.Timeline); i++ {
			c.Timeline[i].Done = true
			if c.Timeline[i].Date == nil {
				t := now
				c.Timeline[i].Date = &t
			}
		}

		if err := l.store.Update(ctx, c); err != nil {
			if err == store.ErrConflict {
				continue
			}
			return nil, err
		}
		return c, nil
	}
	return nil, store.ErrConflict
}

// Upvote atomically increments the upvote counter and returns the new count.
func (l *Lifecycle) Upvote(ctx context.Context, complaintID string) (int, error) {
	count, err := l.store.IncrementUpvotes(ctx, complaintID)
	if err == store.ErrNotFound {
		return 0, &NotFoundError{ComplaintID: complaintID}
	}
	return count, err
}

// Get looks up a complaint by its public id.
func (l *Lifecycle) Get(ctx context.Context, complaintID string) (*models.Complaint, error) {
	c, err := l.store.GetByComplaintID(ctx, complaintID)
	if err == store.ErrNotFound {
		return nil, &NotFoundError{ComplaintID: complaintID}
	}
	return c, err
}

// Nearby lists open and resolved complaints around a point, nearest first.
func (l *Lifecycle) Nearby(ctx context.Context, lng, lat, radiusMeters float64, status string) ([]models.Complaint, error) {
	f := store.NearFilter{}
	if status != "" {
		st, ok := models.ParseStatus(status)
		if !ok {
			return nil, validationf("invalid status %q", status)
		}
		f.Status = st
	}
	if radiusMeters <= 0 {
		radiusMeters = config.NearbyDefaultRadiusMeters
	}
	return l.store.FindNear(ctx, models.NewPoint(lng, lat), radiusMeters, f)
}

// ReportInput is an inbound escalation-aware report identified by
// (reporter, title).
type ReportInput struct {
	ReporterID    primitive.ObjectID
	Title         string
	IssueType     string
	Description   string
	Longitude     float64
	Latitude      float64
	ReporterEmail string
	ImageURL      *string
}

// ReportResult carries the complaint and whether this report brought it to
// the escalation threshold.
type ReportResult struct {
	Complaint    *models.Complaint
	LimitReached bool
}

// RecordReport routes repeated identical reports through the escalation
// tracker instead of creating new complaints. The first (reporter, title)
// occurrence creates a complaint with ReportCount 1 via the normal create
// pipeline; repeats bump the count up to the cap, beyond which the report is
// rejected.
func (l *Lifecycle) RecordReport(ctx context.Context, in ReportInput) (*ReportResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}

	existing, limitReached, err := l.tracker.RecordRepeat(ctx, in.ReporterID, title)
	if err == nil {
		return &ReportResult{Complaint: existing, LimitReached: limitReached}, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	// First report of this titled issue by this reporter. Identity on this
	// path is (reporter, title), so geo duplicate detection is skipped and
	// the complaint enters the workflow as Pending.
	reporter := in.ReporterID
	complaint, err := l.createNew(ctx, CreateInput{
		IssueType:     in.IssueType,
		Description:   in.Description,
		Longitude:     in.Longitude,
		Latitude:      in.Latitude,
		Title:         title,
		ReporterEmail: in.ReporterEmail,
		ImageURL:      in.ImageURL,
		CreatedBy:     &reporter,
	}, models.Pending)
	if err != nil {
		return nil, err
	}
	return &ReportResult{Complaint: complaint, LimitReached: false}, nil
}

// Escalate performs the explicit escalation action; see EscalationTracker.
func (l *Lifecycle) Escalate(ctx context.Context, complaintID string) (*models.Complaint, error) {
	return l.tracker.Escalate(ctx, complaintID)
}

func (l *Lifecycle) insertWithFreshID(ctx context.Context, c *models.Complaint) error {
	var err error
	for attempt := 0; attempt < casAttempts; attempt++ {
		c.ComplaintID = GenerateComplaintID()
		err = l.store.Insert(ctx, c)
		if err != store.ErrDuplicateID {
			return err
		}
	}
	return err
}

// reverseGeocode never fails the caller: any geocoding error degrades to the
// unknown-area defaults.
func (l *Lifecycle) reverseGeocode(ctx context.Context, lng, lat float64) GeoResult {
	if l.geocoder == nil {
		return DefaultGeoResult()
	}
	geo, err := l.geocoder.Reverse(ctx, lng, lat)
	if err != nil {
		log.Printf("reverse geocode failed: %v", err)
		return DefaultGeoResult()
	}
	return geo
}

// dispatchAcknowledgment fires the submission mail without blocking the
// caller.
func (l *Lifecycle) dispatchAcknowledgment(c *models.Complaint) {
	if l.notifier == nil || c.ReporterEmail == nil {
		return
	}
	n := Notification{
		To:          *c.ReporterEmail,
		ComplaintID: c.ComplaintID,
		IssueType:   c.IssueType,
		Area:        c.Area,
		City:        c.City,
	}
	go func() {
		if err := l.notifier.SendAcknowledgment(n); err != nil {
			log.Printf("acknowledgment email failed for %s: %v", n.ComplaintID, err)
		}
	}()
}

// notifyResolution attempts the resolution mail and, only on success, flips
// the at-most-once emailNotified guard. The flag write is best-effort: losing
// it means a later resolve may mail again, never that the status change is
// rolled back.
func (l *Lifecycle) notifyResolution(ctx context.Context, c *models.Complaint) bool {
	if l.notifier == nil {
		return false
	}
	n := Notification{
		To:          *c.ReporterEmail,
		ComplaintID: c.ComplaintID,
		IssueType:   c.IssueType,
		Area:        c.Area,
		City:        c.City,
	}
	if c.AssignedDepartment != nil {
		n.Department = *c.AssignedDepartment
	}

	if err := l.notifier.SendResolution(n); err != nil {
		log.Printf("resolution email failed for %s: %v", c.ComplaintID, err)
		return false
	}

	c.EmailNotified = true
	if err := l.store.Update(ctx, c); err != nil {
		if err == store.ErrConflict {
			// Re-read and re-apply just the flag.
			if cur, gerr := l.store.GetByComplaintID(ctx, c.ComplaintID); gerr == nil {
				cur.EmailNotified = true
				if uerr := l.store.Update(ctx, cur); uerr == nil {
					*c = *cur
					return true
				}
			}
		}
		log.Printf("failed to persist emailNotified for %s: %v", c.ComplaintID, err)
	}
	return true
}

func validateDescription(description string) error {
	n := len(strings.TrimSpace(description))
	if n < config.DescriptionMinLen {
		return validationf("description must be at least %d characters", config.DescriptionMinLen)
	}
	if n > config.DescriptionMaxLen {
		return validationf("description cannot exceed %d characters", config.DescriptionMaxLen)
	}
	return nil
}
