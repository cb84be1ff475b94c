package services

import (
	"testing"

	"civicsense-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTimeline(t *testing.T) {
	timeline := BuildTimeline(models.Submitted)

	require.Len(t, timeline, 4)
	assert.Equal(t, "Submitted", timeline[0].Step)
	assert.True(t, timeline[0].Done)
	assert.NotNil(t, timeline[0].Date)

	for i := 1; i < len(timeline); i++ {
		assert.False(t, timeline[i].Done, "step %s must start undone", timeline[i].Step)
		assert.Nil(t, timeline[i].Date)
	}
}

func TestBuildTimelinePendingMapsToFirstStep(t *testing.T) {
	timeline := BuildTimeline(models.Pending)

	require.Len(t, timeline, 4)
	assert.True(t, timeline[0].Done)
	assert.False(t, timeline[1].Done)
}

func TestAdvanceTimelineMarksStepsThroughTarget(t *testing.T) {
	timeline := BuildTimeline(models.Submitted)

	advanced, err := AdvanceTimeline(timeline, models.InProgress)
	require.NoError(t, err)

	assert.True(t, advanced[0].Done)
	assert.True(t, advanced[1].Done)
	assert.True(t, advanced[2].Done)
	assert.False(t, advanced[3].Done)
	assert.Nil(t, advanced[3].Date)

	// The seeded Submitted date survives the advance.
	assert.Equal(t, timeline[0].Date, advanced[0].Date)
}

func TestAdvanceTimelineIdempotent(t *testing.T) {
	timeline := BuildTimeline(models.Submitted)

	first, err := AdvanceTimeline(timeline, models.Resolved)
	require.NoError(t, err)

	second, err := AdvanceTimeline(first, models.Resolved)
	require.NoError(t, err)

	// Dates must be unchanged on the second application.
	assert.Equal(t, first, second)
}

func TestAdvanceTimelineBackwardClearsLaterSteps(t *testing.T) {
	timeline := BuildTimeline(models.Submitted)

	resolved, err := AdvanceTimeline(timeline, models.Resolved)
	require.NoError(t, err)
	for _, step := range resolved {
		require.True(t, step.Done)
		require.NotNil(t, step.Date)
	}

	back, err := AdvanceTimeline(resolved, models.Assigned)
	require.NoError(t, err)

	assert.True(t, back[0].Done)
	assert.True(t, back[1].Done)
	assert.False(t, back[2].Done)
	assert.Nil(t, back[2].Date)
	assert.False(t, back[3].Done)
	assert.Nil(t, back[3].Date)

	// Steps that stay done keep their original dates.
	assert.Equal(t, resolved[0].Date, back[0].Date)
	assert.Equal(t, resolved[1].Date, back[1].Date)
}

func TestAdvanceTimelineRejectsEscalated(t *testing.T) {
	timeline := BuildTimeline(models.Submitted)

	_, err := AdvanceTimeline(timeline, models.Escalated)
	assert.True(t, IsValidation(err))
}

func TestAppendEscalatedStep(t *testing.T) {
	timeline := BuildTimeline(models.Submitted)

	escalated := AppendEscalatedStep(timeline)

	require.Len(t, escalated, 5)
	last := escalated[len(escalated)-1]
	assert.Equal(t, EscalatedStep, last.Step)
	assert.True(t, last.Done)
	assert.NotNil(t, last.Date)

	// The ordered chain is untouched.
	assert.Equal(t, timeline, escalated[:4])
}
