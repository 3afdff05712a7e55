package errors

import (
	"errors"
)

// Failure classes shared by handlers, the access gate and the scheduler.
var (
	ErrPermission  = errors.New("permission denied")
	ErrValidation  = errors.New("invalid input")
	ErrQuota       = errors.New("quota exceeded")
	ErrDelivery    = errors.New("delivery failed")
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("not found")
)

// UsageError carries the hint shown to a caller who passed malformed arguments.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

func (e *UsageError) Is(target error) bool {
	return target == ErrValidation
}

func Usage(hint string) error {
	return &UsageError{Usage: hint}
}
