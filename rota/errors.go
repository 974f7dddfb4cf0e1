/*
errors.go - Centralized error types for the rotation engine

PURPOSE:
  All engine error types in one place. Domain packages wrap these with
  additional context.

ERROR CATEGORIES:
  1. Configuration errors - Missing/invalid anchors (fatal at startup)
  2. Validation errors - Malformed input at a service boundary
  3. Conflict errors - Booking overlap rejections
  4. Not-found errors - Missing records

USAGE:
  if errors.Is(err, rota.ErrBookingConflict) {
      var conflict *rota.ConflictError
      errors.As(err, &conflict)
      // conflict.BookingID identifies the blocking reservation
  }
*/
package rota

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAnchorRequired is returned when the anchor configuration is missing
	// or malformed. The engine refuses to initialize without anchors: there
	// is no deterministic rotation answer to give without a reference point.
	ErrAnchorRequired = errors.New("anchor configuration required")

	// ErrInvalidGroup is returned when parsing an unknown duty group name.
	ErrInvalidGroup = errors.New("invalid duty group")

	// ErrInvalidSubGroup is returned when a rest sub-group is outside 1..8.
	ErrInvalidSubGroup = errors.New("invalid rest sub-group")

	// ErrInvalidInterval is returned when a booking interval has its end at
	// or before its start. Checked at the service boundary, never inside the
	// overlap predicate.
	ErrInvalidInterval = errors.New("invalid interval: end not after start")

	// ErrBookingConflict is returned when a proposed reservation overlaps a
	// non-cancelled reservation for the same resource.
	ErrBookingConflict = errors.New("booking conflict")

	// ErrRecordNotFound is returned when a keyed record does not exist.
	ErrRecordNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AnchorError reports which anchor field failed validation.
type AnchorError struct {
	Field  string
	Reason string
}

func (e *AnchorError) Error() string {
	return fmt.Sprintf("anchor configuration: %s: %s", e.Field, e.Reason)
}

func (e *AnchorError) Unwrap() error { return ErrAnchorRequired }

// ConflictError identifies the reservation that blocks a proposed booking.
// Surfaced to the user as a rejection, never retried automatically.
type ConflictError struct {
	ResourceID string
	BookingID  string
	Start      time.Time
	End        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict on resource %s: overlaps booking %s [%s, %s)",
		e.ResourceID, e.BookingID,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func (e *ConflictError) Unwrap() error { return ErrBookingConflict }
