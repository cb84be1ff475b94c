package services

import (
	"time"

	"civicsense-be/models"
)

// TimelineSteps is the ordered progress chain every complaint carries. The
// Escalated entry is appended out-of-band and is not part of the chain.
var TimelineSteps = []models.Status{
	models.Submitted,
	models.Assigned,
	models.InProgress,
	models.Resolved,
}

// EscalatedStep is the label of the out-of-band escalation timeline entry.
const EscalatedStep = "Escalated"

// timelineIndex maps a status to its position in the chain. Pending rides
// with Submitted at index 0; Escalated has no chain position.
func timelineIndex(s models.Status) (int, bool) {
	switch s {
	case models.Submitted, models.Pending:
		return 0, true
	case models.Assigned:
		return 1, true
	case models.InProgress:
		return 2, true
	case models.Resolved:
		return 3, true
	}
	return -1, false
}

// BuildTimeline seeds the progress chain for a new complaint. Every step is
// undone except the one for the initial status, which is stamped now.
func BuildTimeline(initial models.Status) []models.TimelineStep {
	now := time.Now()
	initialIdx, _ := timelineIndex(initial)

	timeline := make([]models.TimelineStep, len(TimelineSteps))
	for i, step := range TimelineSteps {
		timeline[i] = models.TimelineStep{Step: string(step)}
		if i == initialIdx {
			t := now
			timeline[i].Date = &t
			timeline[i].Done = true
		}
	}
	return timeline
}

// AdvanceTimeline recomputes the chain for a target status. Steps at or
// before the target are done, keeping their original date when they already
// had one; steps past the target are cleared. Applying the same target twice
// changes nothing, and moving backward legitimately un-does later steps.
func AdvanceTimeline(timeline []models.TimelineStep, target models.Status) ([]models.TimelineStep, error) {
	targetIdx, ok := timelineIndex(target)
	if !ok {
		return nil, validationf("status %q has no timeline position", target)
	}

	now := time.Now()
	updated := make([]models.TimelineStep, len(TimelineSteps))
	for i, step := range TimelineSteps {
		updated[i] = models.TimelineStep{Step: string(step)}
		if i > targetIdx {
			continue
		}
		updated[i].Done = true
		if prev := stepDate(timeline, string(step)); prev != nil {
			updated[i].Date = prev
		} else {
			t := now
			updated[i].Date = &t
		}
	}
	return updated, nil
}

// AppendEscalatedStep adds the out-of-band Escalated entry, leaving the
// ordered chain untouched. Escalated complaints therefore carry a timeline
// longer than the base chain.
func AppendEscalatedStep(timeline []models.TimelineStep) []models.TimelineStep {
	now := time.Now()
	return append(timeline, models.TimelineStep{
		Step: EscalatedStep,
		Date: &now,
		Done: true,
	})
}

func stepDate(timeline []models.TimelineStep, step string) *time.Time {
	for _, entry := range timeline {
		if entry.Step == step {
			return entry.Date
		}
	}
	return nil
}
