package services

import (
	"context"

	"civicsense-be/config"
	"civicsense-be/models"
	"civicsense-be/store"
)

// DuplicateDetector decides whether an incoming report matches an existing
// open complaint: same issue type, not yet resolved, within the duplicate
// radius. Matching is exact on type and radius only; there is no fuzzy text
// matching or description similarity weighting.
type DuplicateDetector struct {
	store store.ComplaintStore
}

func NewDuplicateDetector(s store.ComplaintStore) *DuplicateDetector {
	return &DuplicateDetector{store: s}
}

// Detect returns the nearest open complaint of the same type within the
// duplicate radius, or nil when the report is genuinely new.
//
// The caller's detect-then-upvote-or-create sequence is a check-then-act
// race: two simultaneous reports at the same spot can both miss here and
// create two complaints. The domain tolerates the occasional duplicate
// record.
func (d *DuplicateDetector) Detect(ctx context.Context, issueType models.IssueType, pt models.Point) (*models.Complaint, error) {
	matches, err := d.store.FindNear(ctx, pt, config.DuplicateRadiusMeters, store.NearFilter{
		IssueType:       issueType,
		ExcludeResolved: true,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
