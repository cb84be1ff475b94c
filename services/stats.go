package services

import (
	"context"
	"math"

	"civicsense-be/models"
	"civicsense-be/store"

	"github.com/montanaflynn/stats"
)

// AdminStats is the triage summary shown on the admin dashboard.
type AdminStats struct {
	Total                int64   `json:"total"`
	Pending              int64   `json:"pending"`
	Assigned             int64   `json:"assigned"`
	InProgress           int64   `json:"inProgress"`
	Resolved             int64   `json:"resolved"`
	Escalated            int64   `json:"escalated"`
	HighPriority         int64   `json:"highPriority"`
	AvgResolutionDays    float64 `json:"avgResolutionDays"`
	MedianResolutionDays float64 `json:"medianResolutionDays"`
}

// List exposes the admin triage listing.
func (l *Lifecycle) List(ctx context.Context, f store.ListFilter) ([]models.Complaint, int64, error) {
	return l.store.List(ctx, f)
}

// AdminStats aggregates status counts and resolution-time statistics.
// Submitted and Pending are lumped together as "pending" for triage.
func (l *Lifecycle) AdminStats(ctx context.Context) (*AdminStats, error) {
	byStatus, err := l.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	out := &AdminStats{
		Pending:    byStatus[models.Submitted] + byStatus[models.Pending],
		Assigned:   byStatus[models.Assigned],
		InProgress: byStatus[models.InProgress],
		Resolved:   byStatus[models.Resolved],
		Escalated:  byStatus[models.Escalated],
	}
	for _, n := range byStatus {
		out.Total += n
	}

	out.HighPriority, err = l.store.CountByPriority(ctx, models.High)
	if err != nil {
		return nil, err
	}

	days, err := l.store.ResolutionDays(ctx)
	if err != nil {
		return nil, err
	}
	if len(days) > 0 {
		if avg, err := stats.Mean(days); err == nil {
			out.AvgResolutionDays = round1(avg)
		}
		if med, err := stats.Median(days); err == nil {
			out.MedianResolutionDays = round1(med)
		}
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
