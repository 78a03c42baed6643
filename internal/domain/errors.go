package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound signals an operation on an unknown pet id. This is an
	// expected, recoverable condition in UI-driven flows, not a failure.
	ErrNotFound = errors.New("pet not found")

	// ErrAlreadySold signals feed/play/sell on a pet whose sale is final.
	ErrAlreadySold = errors.New("pet already sold")

	// ErrInvalidInput signals malformed input, including unparseable snapshots.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError aggregates every constraint violation of a create or update
// payload. The payload is never partially applied.
type ValidationError struct {
	Violations []string
}

// Add appends a human-readable violation.
func (e *ValidationError) Add(violation string) {
	e.Violations = append(e.Violations, violation)
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
