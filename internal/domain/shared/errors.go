// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors for errors.Is() checking.
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// Data integrity: a stored row violates its value-range invariant.
	// Assessments built on such rows fail closed, they are never clamped.
	ErrDataIntegrity = errors.New("data integrity violation")

	// Storage errors
	ErrStorage            = errors.New("storage error")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTimeout            = errors.New("operation timeout")

	// Configuration errors fail fast at startup, never mid-computation.
	ErrConfiguration = errors.New("invalid configuration")

	// State errors
	ErrInvalidState = errors.New("invalid state")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "risk", "funnel", "snapshot"
	Op      string // Operation that failed, e.g., "Assess", "Save"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidStudentID     = NewDomainError("student", "Validate", ErrInvalidID, "invalid student ID")
	ErrInvalidStudentStatus = NewDomainError("student", "Validate", ErrInvalidState, "invalid enrollment status")
)

// Learning log domain errors
var (
	ErrRatingOutOfRange = NewDomainError("learning", "Validate", ErrDataIntegrity, "ordinal rating outside 1-5")
	ErrScoreOutOfRange  = NewDomainError("learning", "Validate", ErrDataIntegrity, "test score outside 0-100")
	ErrLogDateMissing   = NewDomainError("learning", "Validate", ErrInvalidInput, "log date is required")
)

// Risk domain errors. A student below the minimum log count is not an
// error case: the scorer returns the insufficient-data level instead.
var (
	ErrInvalidRiskWeights = NewDomainError("risk", "Configure", ErrConfiguration, "weights must be positive")
	ErrInvalidRiskCutoffs = NewDomainError("risk", "Configure", ErrConfiguration, "high cutoff must exceed medium cutoff")
)

// Snapshot domain errors
var (
	ErrSnapshotNotFound  = NewDomainError("snapshot", "Find", ErrNotFound, "snapshot not found")
	ErrSnapshotConflict  = NewDomainError("snapshot", "Save", ErrAlreadyExists, "snapshot already exists for month")
	ErrInvalidSnapshotYM = NewDomainError("snapshot", "Validate", ErrInvalidInput, "invalid snapshot year-month")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDataIntegrity checks if the error is a data integrity violation.
func IsDataIntegrity(err error) bool {
	return errors.Is(err, ErrDataIntegrity)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsStorage checks if the error comes from the storage collaborator.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrTimeout)
}
