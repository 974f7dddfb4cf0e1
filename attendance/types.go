/*
Package attendance implements the attendance ledger: one record per
(operational date, duty group), holding a per-person status map and a
closed/open validation state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Status: closed enumeration of attendance states, including a
    deprecated variant accepted on read but never written by new code
  - Record: the stored unit, keyed by (DutyDate, DutyGroup), carrying
    both the explicit status map and the legacy "present id list"

LEGACY FORMAT:
  Old records stored only a flat list of present person ids. Reads fall
  back to that list when no explicit status exists (two-tier resolution,
  see Record.StatusOf). The fallback is preserved forever rather than
  migrated destructively; the ledger logs a consistency warning each time
  it is exercised so operators can migrate at their own pace.

SEE ALSO:
  - ledger.go: upsert/reopen/prefill operations and handover detection
*/
package attendance

import (
	"time"

	"github.com/warp/rota-engine/rota"
)

// =============================================================================
// STATUS - Closed attendance enumeration
// =============================================================================

// Status is a person's attendance state for one operational date.
type Status string

const (
	StatusPresent Status = "present"

	// Substitution slots. Up to three named substitutes can stand in for a
	// person on the same day; the slot number pairs the status with the
	// free-text substitute name on the record.
	StatusSubstituted1 Status = "substituted_1"
	StatusSubstituted2 Status = "substituted_2"
	StatusSubstituted3 Status = "substituted_3"

	StatusOnMission        Status = "on_mission"
	StatusSick             Status = "sick"
	StatusOnLeave          Status = "on_leave"
	StatusCompRest         Status = "compensatory_rest"
	StatusPermittedAbsence Status = "permitted_absence"

	// StatusAbsent is the implicit state of anyone unlisted. It is derived
	// on read and never stored.
	StatusAbsent Status = "absent"

	// Deprecated: StatusDetached marked personnel detached to another site
	// in old records. Accepted on read (treated as on-mission for counting
	// purposes), rejected on write.
	StatusDetached Status = "detached"
)

// SubstituteSlots is the number of parallel substitution slots per record.
const SubstituteSlots = 3

// Writable reports whether new code may store this status.
// StatusAbsent is implicit and StatusDetached is read-only legacy.
func (s Status) Writable() bool {
	switch s {
	case StatusPresent, StatusSubstituted1, StatusSubstituted2, StatusSubstituted3,
		StatusOnMission, StatusSick, StatusOnLeave, StatusCompRest, StatusPermittedAbsence:
		return true
	default:
		return false
	}
}

// Readable reports whether the status is a known value at all, including
// the deprecated legacy variant.
func (s Status) Readable() bool {
	return s.Writable() || s == StatusAbsent || s == StatusDetached
}

// CountsPresent reports whether the status contributes to a paying
// head-count: physically present, or covered by an active substitution.
func (s Status) CountsPresent() bool {
	switch s {
	case StatusPresent, StatusSubstituted1, StatusSubstituted2, StatusSubstituted3:
		return true
	default:
		return false
	}
}

// SubstituteSlot returns the 1-based substitution slot for a substituted
// status, or 0 for any other status.
func (s Status) SubstituteSlot() int {
	switch s {
	case StatusSubstituted1:
		return 1
	case StatusSubstituted2:
		return 2
	case StatusSubstituted3:
		return 3
	default:
		return 0
	}
}

// =============================================================================
// RECORD - One (date, group) attendance sheet
// =============================================================================

// Record is the attendance sheet for one duty group on one operational
// date. Created on first upsert; never hard-deleted except by an explicit
// administrative purge.
type Record struct {
	ID    string
	Date  rota.DutyDate
	Group rota.DutyGroup

	// Statuses maps person id -> explicit status. Anyone unlisted is
	// implicitly absent (unless the legacy list says otherwise).
	Statuses map[string]Status

	// Substitutes maps slot (1..3) -> free-text substitute name.
	Substitutes map[int]string

	// LegacyPresent is the old flat "present id list" representation.
	// Read-only: preserved across upserts, consulted as a fallback.
	LegacyPresent []string

	// Validation state. Reopening clears these three fields and nothing
	// else: the status map survives a reopen untouched.
	Closed   bool
	ClosedBy string
	ClosedAt time.Time
}

// StatusOf resolves a person's status with the two-tier fallback:
// explicit map first, then the legacy present list, then implicit absent.
// The second result reports whether the legacy fallback was used.
func (r *Record) StatusOf(personID string) (Status, bool) {
	if s, ok := r.Statuses[personID]; ok {
		return s, false
	}
	for _, id := range r.LegacyPresent {
		if id == personID {
			return StatusPresent, true
		}
	}
	return StatusAbsent, false
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate shared state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Statuses = make(map[string]Status, len(r.Statuses))
	for k, v := range r.Statuses {
		out.Statuses[k] = v
	}
	out.Substitutes = make(map[int]string, len(r.Substitutes))
	for k, v := range r.Substitutes {
		out.Substitutes[k] = v
	}
	out.LegacyPresent = append([]string(nil), r.LegacyPresent...)
	return &out
}
