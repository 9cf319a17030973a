// Package fault classifies errors crossing component boundaries.
//
// The agent pipeline distinguishes four failure classes, checked with
// errors.Is() at the HTTP boundary and by retry logic:
//
//   - ErrTransient: an upstream call (embedding, model, index, store) failed
//     for a retryable reason. Retried with bounded backoff, then surfaced.
//   - ErrValidation: malformed input (bad upload, empty chunk set, malformed
//     quiz schema). Reported to the caller, never retried.
//   - ErrConflict: a concurrent re-ingestion or dedup race. Retried once
//     internally, then surfaced.
//   - ErrNotFound: an operation on an unknown entry/document/quiz id.
//
// Classification uses sentinel values plus fmt.Errorf("%w") wrapping, so
// callers use errors.Is without a custom error type.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks a retryable upstream failure.
	ErrTransient = errors.New("transient upstream error")

	// ErrValidation marks malformed input rejected at a boundary.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks a concurrent-modification race.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an operation on an unknown identity.
	ErrNotFound = errors.New("not found")
)

// Transientf wraps a formatted message as a transient upstream error.
func Transientf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransient, fmt.Sprintf(format, args...))
}

// Validationf wraps a formatted message as a validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf wraps a formatted message as a conflict error.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFoundf wraps a formatted message as a not-found error.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// IsTransient reports whether err is classified as transient.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsValidation reports whether err is classified as a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is classified as not-found.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
