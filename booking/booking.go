/*
Package booking manages shared-resource reservations (vehicles) and their
overlap invariant.

INVARIANT:
  Among all non-cancelled bookings for the same resource, no two intervals
  overlap. Intervals are half-open [start, end): touching endpoints do not
  conflict.

ATOMICITY:
  The conflict predicate itself is pure. The invariant only holds if the
  check and the write happen under one critical section, so the Store
  contract places the check INSIDE CreateChecked/UpdateChecked (a
  resource-scoped lock in memory, a transaction in SQLite). Two concurrent
  requests can otherwise both observe no-conflict and both commit. A
  failed check surfaces *rota.ConflictError - never a silent retry.

CANCELLATION:
  Cancelling flags the record and nothing else. Bookings are audit
  history; they are never deleted.
*/
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/rota-engine/rota"
)

// Booking is one reservation of a shared resource.
type Booking struct {
	ID         string
	ResourceID string
	Start      time.Time
	End        time.Time
	Requester  string
	Cancelled  bool
	CreatedAt  time.Time
}

// =============================================================================
// CONFLICT PREDICATE - Pure, no side effects
// =============================================================================

// FindConflict scans a snapshot of bookings for one that blocks the
// proposed [start, end) interval on resourceID. Cancelled bookings and
// the booking identified by excludeID (an edit's own prior version) are
// ignored. Returns nil when the interval is free.
func FindConflict(existing []Booking, resourceID string, start, end time.Time, excludeID string) *Booking {
	for i := range existing {
		b := &existing[i]
		if b.Cancelled || b.ResourceID != resourceID || b.ID == excludeID {
			continue
		}
		if rota.Overlaps(start, end, b.Start, b.End) {
			return b
		}
	}
	return nil
}

// HasConflict is the boolean form of FindConflict.
func HasConflict(existing []Booking, resourceID string, start, end time.Time, excludeID string) bool {
	return FindConflict(existing, resourceID, start, end, excludeID) != nil
}

// =============================================================================
// STORE - Persistence contract with the atomic check-then-write
// =============================================================================

// Store persists bookings. CreateChecked and UpdateChecked MUST evaluate
// the conflict predicate and apply the write as one atomic step, and
// return *rota.ConflictError when the interval is blocked.
type Store interface {
	Get(ctx context.Context, id string) (Booking, error)
	ListByResource(ctx context.Context, resourceID string) ([]Booking, error)
	CreateChecked(ctx context.Context, b Booking) error
	UpdateChecked(ctx context.Context, b Booking) error
	Cancel(ctx context.Context, id string) error
}

// =============================================================================
// SERVICE - Validation boundary and lifecycle
// =============================================================================

// Service is the booking domain service. Interval validation lives here,
// at the caller boundary; the predicate stays total.
type Service struct {
	store Store
	clock rota.Clock
}

func NewService(store Store, clock rota.Clock) *Service {
	return &Service{store: store, clock: clock}
}

// Reserve creates a new booking after the atomic conflict check.
func (s *Service) Reserve(ctx context.Context, resourceID string, start, end time.Time, requester string) (Booking, error) {
	if !end.After(start) {
		return Booking{}, rota.ErrInvalidInterval
	}
	b := Booking{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		Start:      start,
		End:        end,
		Requester:  requester,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.CreateChecked(ctx, b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

// Amend moves an existing booking to a new interval. The conflict
// re-check excludes the booking's own prior version.
func (s *Service) Amend(ctx context.Context, id string, start, end time.Time) (Booking, error) {
	if !end.After(start) {
		return Booking{}, rota.ErrInvalidInterval
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	b.Start = start
	b.End = end
	if err := s.store.UpdateChecked(ctx, b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

// Cancel flags a booking cancelled, freeing its interval while keeping
// the record for audit.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.store.Cancel(ctx, id)
}

// ListByResource returns all bookings for a resource, cancelled included.
func (s *Service) ListByResource(ctx context.Context, resourceID string) ([]Booking, error) {
	return s.store.ListByResource(ctx, resourceID)
}
