package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means the portal session is missing or expired.
	// The operator has to log in again; scraping is not the problem.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConstraintViolation is returned when a fingerprint is recorded twice.
	ErrConstraintViolation = errors.New("constraint violation")

	ErrParseFailure      = errors.New("parse failure")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// DiscoveryError reports one portal view or strategy that produced nothing
// because it failed. It is logged, never fatal.
type DiscoveryError struct {
	View     string
	CourseID string
	Err      error
}

func (e *DiscoveryError) Error() string {
	if e.CourseID == "" {
		return fmt.Sprintf("discover %s: %v", e.View, e.Err)
	}
	return fmt.Sprintf("discover %s for course %s: %v", e.View, e.CourseID, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// CreationError reports a reminder the external system refused.
type CreationError struct {
	ExternalID string
	Err        error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create reminder %s: %v", e.ExternalID, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }
