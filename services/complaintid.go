package services

import (
	"fmt"
	"math/rand"
	"time"

	"civicsense-be/config"
)

// GenerateComplaintID produces a human-readable public id of the form
// CIV-2026-4821. The 4-digit suffix is random; the unique index on
// complaintId turns a collision into an insert error the caller retries.
func GenerateComplaintID() string {
	num := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%s-%d-%d", config.ComplaintIDPrefix, time.Now().Year(), num)
}
