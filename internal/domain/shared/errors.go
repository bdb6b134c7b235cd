// Package shared contains the error kinds used across all domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Storage errors
	ErrLoad = errors.New("load failed")
	ErrSave = errors.New("save failed")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "record", "registry", "progress"
	Op      string // Operation that failed, e.g., "Add", "Save"
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

// Is implements errors.Is() matching. A wrapped copy still matches the
// sentinel it was created from.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok && e.sameAs(t) {
		return true
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

func (e *DomainError) sameAs(t *DomainError) bool {
	return e.Domain == t.Domain && e.Op == t.Op && e.Kind == t.Kind && e.Message == t.Message
}

// Wrap returns a copy of the error carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	clone := *e
	clone.Err = err
	return &clone
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

// Record domain errors
var (
	ErrInvalidScore    = NewDomainError("record", "AddScore", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrMalformedRecord = NewDomainError("record", "Decode", ErrInvalidFormat, "malformed record")
)

// Registry errors
var (
	ErrDuplicateID    = NewDomainError("registry", "Add", ErrAlreadyExists, "record id already exists")
	ErrEmptyID        = NewDomainError("registry", "Add", ErrEmptyValue, "record id cannot be empty")
	ErrRecordNotFound = NewDomainError("registry", "Find", ErrNotFound, "record not found")
	ErrLoadFailed     = NewDomainError("registry", "Load", ErrLoad, "failed to load records")
	ErrSaveFailed     = NewDomainError("registry", "Save", ErrSave, "failed to save records")
)

// Progress domain errors
var (
	ErrUnknownTopic      = NewDomainError("progress", "Find", ErrNotFound, "unknown topic")
	ErrEmptyNote         = NewDomainError("progress", "AddNote", ErrEmptyValue, "note cannot be empty")
	ErrProgressLoad      = NewDomainError("progress", "Load", ErrLoad, "failed to load progress")
	ErrProgressSave      = NewDomainError("progress", "Save", ErrSave, "failed to save progress")
	ErrMalformedProgress = NewDomainError("progress", "Decode", ErrInvalidFormat, "malformed progress document")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyValue) || errors.Is(err, ErrValueOutOfRange)
}

// IsStorage checks if the error came from loading or saving state.
func IsStorage(err error) bool {
	return errors.Is(err, ErrLoad) || errors.Is(err, ErrSave)
}
