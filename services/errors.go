package services

import (
	"errors"
	"fmt"
)

// Error taxonomy for the lifecycle engine. Validation, not-found and
// limit-exceeded errors abort the operation with no partial state change;
// collaborator failures (geocoding, notification) never surface as errors
// from the primary operations.

// ValidationError marks missing or malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NotFoundError marks an unknown complaint id.
type NotFoundError struct {
	ComplaintID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("complaint %s not found", e.ComplaintID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// LimitExceededError marks a rejected business rule: the report cap was hit,
// or escalation was requested below the threshold.
type LimitExceededError struct {
	Msg string
}

func (e *LimitExceededError) Error() string { return e.Msg }

func limitf(format string, args ...interface{}) error {
	return &LimitExceededError{Msg: fmt.Sprintf(format, args...)}
}

// IsLimitExceeded reports whether err is a LimitExceededError.
func IsLimitExceeded(err error) bool {
	var l *LimitExceededError
	return errors.As(err, &l)
}
