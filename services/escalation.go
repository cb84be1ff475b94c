package services

import (
	"context"

	"civicsense-be/config"
	"civicsense-be/models"
	"civicsense-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EscalationTracker counts repeated reports of the same titled issue by the
// same reporter and performs the explicit escalation action once the cap is
// reached. Identity here is (reporter, title); geography plays no part.
type EscalationTracker struct {
	store store.ComplaintStore
}

func NewEscalationTracker(s store.ComplaintStore) *EscalationTracker {
	return &EscalationTracker{store: s}
}

// RecordRepeat bumps the report count on the reporter's existing complaint
// with that title. It returns store.ErrNotFound when no such complaint exists
// yet (the caller then creates one with ReportCount 1), and a
// LimitExceededError when the count is already at the cap.
func (t *EscalationTracker) RecordRepeat(ctx context.Context, reporter primitive.ObjectID, title string) (*models.Complaint, bool, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		c, err := t.store.FindByReporterAndTitle(ctx, reporter, title)
		if err != nil {
			return nil, false, err
		}
		if c.ReportCount >= config.MaxReportCount {
			return nil, false, limitf("this issue has already been reported %d times; further reports are not accepted", config.MaxReportCount)
		}

		c.ReportCount++
		if err := t.store.Update(ctx, c); err != nil {
			if err == store.ErrConflict {
				continue
			}
			return nil, false, err
		}
		return c, c.ReportCount >= config.MaxReportCount, nil
	}
	return nil, false, store.ErrConflict
}

// Escalate flips a complaint into the escalated side state. It fails unless
// the report count has reached the cap. Escalated is terminal: there is no
// transition out of it.
func (t *EscalationTracker) Escalate(ctx context.Context, complaintID string) (*models.Complaint, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		c, err := t.store.GetByComplaintID(ctx, complaintID)
		if err != nil {
			if err == store.ErrNotFound {
				return nil, &NotFoundError{ComplaintID: complaintID}
			}
			return nil, err
		}
		if c.Escalated {
			return nil, validationf("complaint %s is already escalated", complaintID)
		}
		if c.ReportCount < config.MaxReportCount {
			return nil, limitf("complaint %s has %d reports; escalation requires %d", complaintID, c.ReportCount, config.MaxReportCount)
		}

		c.Status = models.Escalated
		c.Escalated = true
		c.Timeline = AppendEscalatedStep(c.Timeline)

		if err := t.store.Update(ctx, c); err != nil {
			if err == store.ErrConflict {
				continue
			}
			return nil, err
		}
		return c, nil
	}
	return nil, store.ErrConflict
}
