package services

import (
	"context"
	"testing"

	"civicsense-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validReportInput(reporter primitive.ObjectID) ReportInput {
	return ReportInput{
		ReporterID:  reporter,
		Title:       "Overflowing garbage bin at station road",
		IssueType:   string(models.Garbage),
		Description: "The garbage bin at station road has been overflowing for days",
		Longitude:   baseLng,
		Latitude:    baseLat,
	}
}

func TestRecordReportCountsUpToCap(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()
	reporter := primitive.NewObjectID()

	first, err := l.RecordReport(ctx, validReportInput(reporter))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Complaint.ReportCount)
	assert.False(t, first.LimitReached)
	assert.Equal(t, models.Pending, first.Complaint.Status)

	second, err := l.RecordReport(ctx, validReportInput(reporter))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Complaint.ReportCount)
	assert.False(t, second.LimitReached)
	assert.Equal(t, first.Complaint.ComplaintID, second.Complaint.ComplaintID)

	third, err := l.RecordReport(ctx, validReportInput(reporter))
	require.NoError(t, err)
	assert.Equal(t, 3, third.Complaint.ReportCount)
	assert.True(t, third.LimitReached)

	// The fourth attempt is rejected, not silently ignored.
	_, err = l.RecordReport(ctx, validReportInput(reporter))
	assert.True(t, IsLimitExceeded(err))

	stored, err := l.Get(ctx, first.Complaint.ComplaintID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ReportCount)
}

func TestRecordReportDifferentReporterCreatesNewComplaint(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	first, err := l.RecordReport(ctx, validReportInput(primitive.NewObjectID()))
	require.NoError(t, err)

	other, err := l.RecordReport(ctx, validReportInput(primitive.NewObjectID()))
	require.NoError(t, err)

	assert.NotEqual(t, first.Complaint.ComplaintID, other.Complaint.ComplaintID)
	assert.Equal(t, 1, other.Complaint.ReportCount)
}

func TestRecordReportRequiresTitle(t *testing.T) {
	l, _, _ := newTestLifecycle()

	in := validReportInput(primitive.NewObjectID())
	in.Title = "  "
	_, err := l.RecordReport(context.Background(), in)
	assert.True(t, IsValidation(err))
}

func TestEscalateBelowThresholdRejected(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()
	reporter := primitive.NewObjectID()

	first, err := l.RecordReport(ctx, validReportInput(reporter))
	require.NoError(t, err)

	_, err = l.Escalate(ctx, first.Complaint.ComplaintID)
	assert.True(t, IsLimitExceeded(err))
}

func TestEscalateAtThreshold(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()
	reporter := primitive.NewObjectID()

	var id string
	for i := 0; i < 3; i++ {
		result, err := l.RecordReport(ctx, validReportInput(reporter))
		require.NoError(t, err)
		id = result.Complaint.ComplaintID
	}

	escalated, err := l.Escalate(ctx, id)
	require.NoError(t, err)

	assert.True(t, escalated.Escalated)
	assert.Equal(t, models.Escalated, escalated.Status)

	require.Len(t, escalated.Timeline, 5)
	last := escalated.Timeline[len(escalated.Timeline)-1]
	assert.Equal(t, EscalatedStep, last.Step)
	assert.True(t, last.Done)
	assert.NotNil(t, last.Date)

	// Escalating twice is rejected.
	_, err = l.Escalate(ctx, id)
	assert.True(t, IsValidation(err))
}

func TestEscalatedIsTerminal(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()
	reporter := primitive.NewObjectID()

	var id string
	for i := 0; i < 3; i++ {
		result, err := l.RecordReport(ctx, validReportInput(reporter))
		require.NoError(t, err)
		id = result.Complaint.ComplaintID
	}

	_, err := l.Escalate(ctx, id)
	require.NoError(t, err)

	_, _, err = l.ChangeStatus(ctx, id, string(models.Resolved))
	assert.True(t, IsValidation(err))

	_, err = l.AssignDepartment(ctx, id, "Sanitation Department")
	assert.True(t, IsValidation(err))
}

func TestEscalateUnknownComplaint(t *testing.T) {
	l, _, _ := newTestLifecycle()

	_, err := l.Escalate(context.Background(), "CIV-2026-0000")
	assert.True(t, IsNotFound(err))
}
