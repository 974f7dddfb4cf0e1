/*
ledger.go - Attendance ledger operations

PURPOSE:
  Wraps the attendance store with the domain rules the store cannot know:

  1. Two-tier status resolution with the legacy present-list fallback
     (logged as a consistency warning, never thrown).
  2. Full-replace upsert semantics: callers supply the COMPLETE desired
     status map; there is no partial merge. Idempotent by construction.
  3. Reopen preserves data: only the validation state is cleared.
  4. Handover detection via the shift clock, so aggregates can exclude
     the "smontante" day (the group already counted that presence on the
     previous operational date).

AUTHORIZATION:
  Close/reopen require elevated privilege, but that check belongs to the
  caller (an external collaborator). The ledger records state transitions;
  it does not gate them.
*/
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/warp/rota-engine/roster"
	"github.com/warp/rota-engine/rota"
)

// =============================================================================
// STORE - Persistence contract
// =============================================================================

// Store persists attendance records. Put is a full-record replace;
// last-writer-wins is acceptable because upserts are complete maps, never
// merges. Get returns rota.ErrRecordNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, date rota.DutyDate, group rota.DutyGroup) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	ListMonth(ctx context.Context, year int, month time.Month) ([]*Record, error)

	// Purge hard-deletes one record. The only deletion path, reserved for
	// explicit administrative use.
	Purge(ctx context.Context, date rota.DutyDate, group rota.DutyGroup) error
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the attendance domain service.
type Ledger struct {
	store Store
	shift *rota.ShiftClock
	clock rota.Clock

	// Warnf receives consistency warnings (legacy fallback reads).
	// Defaults to log.Printf; tests may silence it.
	Warnf func(format string, args ...any)
}

// NewLedger builds a ledger over a store and the shared shift clock.
func NewLedger(store Store, shift *rota.ShiftClock, clock rota.Clock) *Ledger {
	return &Ledger{
		store: store,
		shift: shift,
		clock: clock,
		Warnf: log.Printf,
	}
}

// Record returns the stored record for (date, group), or
// rota.ErrRecordNotFound if none exists yet.
func (l *Ledger) Record(ctx context.Context, date rota.DutyDate, group rota.DutyGroup) (*Record, error) {
	return l.store.Get(ctx, date, group)
}

// GetStatus resolves one person's status for (date, group).
// Resolution order: explicit status map, then the legacy present list
// (with a logged consistency warning), then implicit absent. A missing
// record means everyone is absent - that is not an error.
func (l *Ledger) GetStatus(ctx context.Context, date rota.DutyDate, group rota.DutyGroup, personID string) (Status, error) {
	rec, err := l.store.Get(ctx, date, group)
	if err != nil {
		if isNotFound(err) {
			return StatusAbsent, nil
		}
		return StatusAbsent, err
	}
	status, legacy := rec.StatusOf(personID)
	if legacy {
		l.Warnf("attendance: legacy present-list fallback for %s group %s person %s", date, group, personID)
	}
	return status, nil
}

// Upsert replaces the full status map and substitute names for (date,
// group) in one atomic operation. If closedBy is non-empty the record is
// marked closed by that identity at the ledger clock's current time;
// otherwise any prior closed state is preserved (reopening is a separate,
// explicit operation).
//
// Idempotent: repeating the call with identical arguments leaves the
// stored record identical, including the close timestamp.
func (l *Ledger) Upsert(ctx context.Context, date rota.DutyDate, group rota.DutyGroup,
	statuses map[string]Status, substitutes map[int]string, closedBy string) error {

	if !group.Valid() {
		return rota.ErrInvalidGroup
	}
	for id, s := range statuses {
		if !s.Writable() {
			return fmt.Errorf("attendance: status %q for %s is not writable", s, id)
		}
	}
	for slot := range substitutes {
		if slot < 1 || slot > SubstituteSlots {
			return fmt.Errorf("attendance: substitute slot %d out of range 1..%d", slot, SubstituteSlots)
		}
	}

	rec := &Record{
		Date:        date,
		Group:       group,
		Statuses:    make(map[string]Status, len(statuses)),
		Substitutes: make(map[int]string, len(substitutes)),
	}
	for k, v := range statuses {
		rec.Statuses[k] = v
	}
	for k, v := range substitutes {
		rec.Substitutes[k] = v
	}

	prev, err := l.store.Get(ctx, date, group)
	switch {
	case err == nil:
		// Identity, legacy data and validation state carry over.
		rec.ID = prev.ID
		rec.LegacyPresent = append([]string(nil), prev.LegacyPresent...)
		rec.Closed = prev.Closed
		rec.ClosedBy = prev.ClosedBy
		rec.ClosedAt = prev.ClosedAt
	case isNotFound(err):
		rec.ID = uuid.NewString()
	default:
		return err
	}

	if closedBy != "" {
		// Re-closing by the same validator keeps the original timestamp so
		// a repeated identical upsert stays a no-op.
		if !(rec.Closed && rec.ClosedBy == closedBy) {
			rec.ClosedAt = l.clock.Now()
		}
		rec.Closed = true
		rec.ClosedBy = closedBy
	}

	return l.store.Put(ctx, rec)
}

// Reopen clears the closed state of an existing record. The status map,
// substitute names and legacy data are preserved exactly. The caller is
// responsible for having authorized actorID; the ledger only records the
// transition.
func (l *Ledger) Reopen(ctx context.Context, date rota.DutyDate, group rota.DutyGroup, actorID string) error {
	rec, err := l.store.Get(ctx, date, group)
	if err != nil {
		return err
	}
	if !rec.Closed {
		return nil
	}
	log.Printf("attendance: record %s group %s reopened by %s", date, group, actorID)
	rec.Closed = false
	rec.ClosedBy = ""
	rec.ClosedAt = time.Time{}
	return l.store.Put(ctx, rec)
}

// Purge hard-deletes one record. Administrative use only.
func (l *Ledger) Purge(ctx context.Context, date rota.DutyDate, group rota.DutyGroup) error {
	return l.store.Purge(ctx, date, group)
}

// IsHandoverDay reports whether date is the handover day for group.
// Exposed here so attendance consumers do not re-derive the rotation.
func (l *Ledger) IsHandoverDay(date rota.DutyDate, group rota.DutyGroup) bool {
	return l.shift.IsHandoverDay(date, group)
}

// =============================================================================
// PREFILL - Advisory default statuses
// =============================================================================

// Prefill derives the default status map for a (date, group) with no
// stored record: members of the scheduled resting sub-group default to
// compensatory rest, everyone else to present. Advisory only - nothing is
// persisted until a human upserts the sheet.
func (l *Ledger) Prefill(date rota.DutyDate, group rota.DutyGroup, staff roster.Roster) map[string]Status {
	resting := l.shift.RestingSubGroup(group, date)
	out := make(map[string]Status)
	for _, m := range staff.MembersOf(group) {
		if m.SubGroup == resting {
			out[m.ID] = StatusCompRest
		} else {
			out[m.ID] = StatusPresent
		}
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, rota.ErrRecordNotFound)
}
