// Package store owns complaint persistence. The ComplaintStore interface is
// the storage contract the lifecycle engine is written against; MongoStore is
// the production implementation, MemoryStore backs tests.
package store

import (
	"context"
	"errors"

	"civicsense-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no complaint matches the lookup.
	ErrNotFound = errors.New("complaint not found")

	// ErrConflict is returned by Update when the record changed since it was
	// read (compare-and-swap on the version field failed). Callers re-read
	// and retry.
	ErrConflict = errors.New("complaint was modified concurrently")

	// ErrDuplicateID is returned by Insert when the complaintId is already
	// taken.
	ErrDuplicateID = errors.New("complaint id already exists")
)

// NearFilter narrows a proximity query. Zero value matches everything inside
// the radius.
type NearFilter struct {
	IssueType       models.IssueType // match exactly when non-empty
	Status          models.Status    // match exactly when non-empty
	ExcludeResolved bool
}

// ListFilter drives the admin triage listing.
type ListFilter struct {
	Status        models.Status
	Priority      models.Priority
	Search        string // matches complaintId, issueType, area or title
	EscalatedOnly bool
	Page          int
	Limit         int
}

// ComplaintStore is the persistence contract for complaints. FindNear is the
// geo index: results come back sorted by ascending great-circle distance from
// the query point, coordinates in (longitude, latitude) order.
//
// Upvote increments are atomic at the store. All other mutations go through
// Update, which applies the whole record as a single compare-and-swap on
// Complaint.Version so racing read-modify-write cycles cannot lose updates.
type ComplaintStore interface {
	Insert(ctx context.Context, c *models.Complaint) error
	GetByComplaintID(ctx context.Context, complaintID string) (*models.Complaint, error)
	FindNear(ctx context.Context, pt models.Point, radiusMeters float64, f NearFilter) ([]models.Complaint, error)
	IncrementUpvotes(ctx context.Context, complaintID string) (int, error)
	Update(ctx context.Context, c *models.Complaint) error
	FindByReporterAndTitle(ctx context.Context, reporter primitive.ObjectID, title string) (*models.Complaint, error)
	List(ctx context.Context, f ListFilter) ([]models.Complaint, int64, error)
	CountByStatus(ctx context.Context) (map[models.Status]int64, error)
	CountByPriority(ctx context.Context, p models.Priority) (int64, error)
	// ResolutionDays returns, for every resolved complaint, the days between
	// creation and last update. Feeds the admin summary statistics.
	ResolutionDays(ctx context.Context) ([]float64, error)
}
