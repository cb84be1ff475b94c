package config

import "os"

// Engine constants. These were scattered literals in earlier revisions; every
// rule that tunes the complaint lifecycle lives here.
const (
	// DuplicateRadiusMeters is how close (great-circle) a new report must be
	// to an open complaint of the same issue type to count as a duplicate.
	DuplicateRadiusMeters = 100

	// NearbyDefaultRadiusMeters is the default radius for the public
	// nearby-complaints query.
	NearbyDefaultRadiusMeters = 500

	// NearbyResultLimit caps proximity query results.
	NearbyResultLimit = 20

	// MaxReportCount is the hard ceiling on repeated reports of the same
	// titled issue by the same reporter. A report that would push the count
	// past this is rejected.
	MaxReportCount = 3

	// DescriptionMinLen and DescriptionMaxLen bound complaint descriptions.
	DescriptionMinLen = 20
	DescriptionMaxLen = 500

	// ComplaintIDPrefix is the leading token of public complaint ids
	// (PREFIX-YEAR-NNNN).
	ComplaintIDPrefix = "CIV"

	// DefaultCity is used when reverse geocoding fails or returns nothing.
	DefaultCity = "Mumbai"

	// UnknownArea is the placeholder area when geocoding has no answer.
	UnknownArea = "Unknown Area"

	// DailyReportLimit is the per-user cap on report submissions per day,
	// enforced by the redis rate limiter.
	DailyReportLimit = 10
)

// GetEnv returns the value of the environment variable or the fallback when
// it is unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
