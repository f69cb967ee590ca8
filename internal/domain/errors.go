package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCampaign   = errors.New("invalid campaign")
	ErrInvalidTimeBasis  = errors.New("invalid time basis")
	ErrBusinessNotFound  = errors.New("business not found")
	ErrMissingLocation   = errors.New("business has no location")
	ErrSinkNotConfigured = errors.New("sink URL not configured")
)

// ValidationError reports a rejected field on an input record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidCampaign.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidCampaign
}
