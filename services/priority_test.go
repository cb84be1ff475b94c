package services

import (
	"testing"

	"civicsense-be/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		issueType models.IssueType
		want      models.Priority
	}{
		{models.Pothole, models.High},
		{models.Drainage, models.High},
		{models.WaterLeakage, models.High},
		{models.Streetlight, models.Medium},
		{models.Garbage, models.Medium},
		{models.IllegalParking, models.Medium},
		{models.TreeFall, models.Medium},
		{models.OtherIssue, models.Medium},
	}

	for _, tt := range tests {
		t.Run(string(tt.issueType), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPriority(tt.issueType))
		})
	}
}

func TestClassifyPriorityTotalAndDeterministic(t *testing.T) {
	for _, issueType := range models.IssueTypes {
		first := ClassifyPriority(issueType)
		second := ClassifyPriority(issueType)

		assert.Equal(t, first, second, "classification must be deterministic for %s", issueType)
		assert.Contains(t, []models.Priority{models.High, models.Medium, models.Low}, first)
	}
}
