package services

import "civicsense-be/models"

// highPriorityTypes are the issue types triaged as High.
var highPriorityTypes = map[models.IssueType]bool{
	models.Pothole:      true,
	models.Drainage:     true,
	models.WaterLeakage: true,
}

// ClassifyPriority maps an issue type to its severity tier. Pure and total
// over the issue type enumeration; everything outside the high set is Medium.
// Low is never produced by the current rule set.
func ClassifyPriority(t models.IssueType) models.Priority {
	if highPriorityTypes[t] {
		return models.High
	}
	return models.Medium
}
