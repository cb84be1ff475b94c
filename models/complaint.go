package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueType enum
type IssueType string

const (
	Pothole        IssueType = "Pothole"
	Streetlight    IssueType = "Streetlight"
	Garbage        IssueType = "Garbage"
	WaterLeakage   IssueType = "Water Leakage"
	Drainage       IssueType = "Drainage"
	IllegalParking IssueType = "Illegal Parking"
	TreeFall       IssueType = "Tree Fall"
	OtherIssue     IssueType = "Other"
)

// IssueTypes lists every valid issue type.
var IssueTypes = []IssueType{
	Pothole, Streetlight, Garbage, WaterLeakage,
	Drainage, IllegalParking, TreeFall, OtherIssue,
}

// ValidIssueType reports whether s names a known issue type.
func ValidIssueType(s string) bool {
	for _, t := range IssueTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Status enum. The first five form an ordered chain; Escalated is a side
// state reachable only through the explicit escalation action.
type Status string

const (
	Submitted  Status = "Submitted"
	Pending    Status = "Pending"
	Assigned   Status = "Assigned"
	InProgress Status = "In Progress"
	Resolved   Status = "Resolved"
	Escalated  Status = "Escalated"
)

// StatusChain is the ordered progression a complaint moves along. Escalated
// is not part of the chain.
var StatusChain = []Status{Submitted, Pending, Assigned, InProgress, Resolved}

// Order returns the position of s in the ordered chain. Escalated and unknown
// values return ok=false.
func (s Status) Order() (int, bool) {
	for i, st := range StatusChain {
		if st == s {
			return i, true
		}
	}
	return -1, false
}

// ParseStatus maps a raw string onto the status enum, including Escalated.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case Submitted, Pending, Assigned, InProgress, Resolved, Escalated:
		return Status(s), true
	}
	return "", false
}

// Priority enum. Low is currently unreachable from the classifier rule set
// but remains part of the stored-document contract.
type Priority string

const (
	High   Priority = "High"
	Medium Priority = "Medium"
	Low    Priority = "Low"
)

// TimelineStep is one entry of a complaint's progress record. Date is set the
// first time a step becomes done and is never rewritten while it stays done.
type TimelineStep struct {
	Step string     `bson:"step" json:"step"`
	Date *time.Time `bson:"date" json:"date"`
	Done bool       `bson:"done" json:"done"`
}

// Point is a GeoJSON point. Coordinates are [longitude, latitude], matching
// the 2dsphere index convention.
type Point struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint builds a GeoJSON point from longitude and latitude.
func NewPoint(lng, lat float64) Point {
	return Point{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p Point) Lng() float64 { return p.Coordinates[0] }
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Complaint represents a reported civic issue tracked through resolution
type Complaint struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ComplaintID        string              `bson:"complaintId" json:"complaintId"`
	Title              string              `bson:"title,omitempty" json:"title,omitempty"`
	IssueType          IssueType           `bson:"issueType" json:"issueType"`
	Description        string              `bson:"description" json:"description"`
	ImageURL           *string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Location           Point               `bson:"location" json:"location"`
	Address            *string             `bson:"address" json:"address"`
	Area               string              `bson:"area" json:"area"`
	City               string              `bson:"city" json:"city"`
	Status             Status              `bson:"status" json:"status"`
	Priority           Priority            `bson:"priority" json:"priority"`
	AssignedDepartment *string             `bson:"assignedDepartment" json:"assignedDepartment"`
	Upvotes            int                 `bson:"upvotes" json:"upvotes"`
	ReportCount        int                 `bson:"reportCount" json:"reportCount"`
	Escalated          bool                `bson:"escalated" json:"escalated"`
	ReporterEmail      *string             `bson:"reporterEmail" json:"reporterEmail,omitempty"`
	EmailNotified      bool                `bson:"emailNotified" json:"emailNotified"`
	CreatedBy          *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Timeline           []TimelineStep      `bson:"timeline" json:"timeline"`
	Version            int64               `bson:"version" json:"-"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}
