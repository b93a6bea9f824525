package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("not found")

// ErrSeatConflict is the sentinel the gateway reports when an authoritative
// seat insert loses to an existing row (same seat or same student).
var ErrSeatConflict = errors.New("seat booking conflict")

// ConflictError is a business-rule violation: the command is valid in form
// but collides with existing state. Returned synchronously, never panics.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// ValidationError is a malformed or out-of-contract command.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Conflictf builds a ConflictError.
func Conflictf(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
