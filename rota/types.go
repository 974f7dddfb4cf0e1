/*
Package rota provides the core shift-rotation calendar engine.

PURPOSE:
  This package contains the deterministic calendar math for a four-group
  rotating duty roster. Everything here is a pure function of its inputs:
  which group is on day duty, which is on night duty, which rest sub-group
  is scheduled off, and whether a date is a handover day for a group.

KEY CONCEPTS IN THIS FILE (types.go):
  - DutyGroup: One of four rotating teams (A, B, C, D)
  - DutyDate: An operational date - a 08:00-to-08:00 work day, NOT a
    calendar day. 03:00 on the 5th belongs to the 4th's duty cycle.
  - Clock: Injected time source so callers never read the system clock
    inside calendar logic

DESIGN PRINCIPLES:
  1. Determinism: Same inputs, same answer. No hidden state, no live clock.
  2. Totality: Every instant maps to a duty identity. No rejected inputs.
  3. Anchoring: All rotation positions are relative displacement from
     immutable anchor constants (see anchors.go), never absolute tables.

USAGE:
  clock := rota.NewShiftClock(anchors)
  day, night, date := clock.ActiveDuty(time.Now())

SEE ALSO:
  - clock.go: ShiftClock duty derivation
  - rest.go: Rest sub-group rotation
  - anchors.go: Anchor configuration
*/
package rota

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DUTY GROUP - One of four rotating teams
// =============================================================================

// DutyGroup identifies one of the four teams in the rotation.
// Rotation order is fixed and forward: A -> B -> C -> D -> A.
type DutyGroup int

const (
	GroupA DutyGroup = iota
	GroupB
	GroupC
	GroupD
)

// GroupCount is the length of the duty rotation cycle.
const GroupCount = 4

// Groups returns all duty groups in rotation order.
func Groups() []DutyGroup {
	return []DutyGroup{GroupA, GroupB, GroupC, GroupD}
}

func (g DutyGroup) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	case GroupC:
		return "C"
	case GroupD:
		return "D"
	default:
		return fmt.Sprintf("DutyGroup(%d)", int(g))
	}
}

// Valid reports whether g is one of the four defined groups.
func (g DutyGroup) Valid() bool {
	return g >= GroupA && g <= GroupD
}

// Add returns the group n positions forward in the rotation.
// Negative n rotates backward. Always lands on a valid group.
func (g DutyGroup) Add(n int) DutyGroup {
	return DutyGroup(mod(int(g)+n, GroupCount))
}

// Next returns the group that follows g in the rotation.
func (g DutyGroup) Next() DutyGroup { return g.Add(1) }

// Prev returns the group that precedes g in the rotation.
func (g DutyGroup) Prev() DutyGroup { return g.Add(-1) }

// ParseGroup converts "A".."D" (case-insensitive) to a DutyGroup.
func ParseGroup(s string) (DutyGroup, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return GroupA, nil
	case "B":
		return GroupB, nil
	case "C":
		return GroupC, nil
	case "D":
		return GroupD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGroup, s)
	}
}

// =============================================================================
// REST SUB-GROUP - 1..8 cyclic cohorts for compensatory rest
// =============================================================================

// SubGroupCount is the length of the rest rotation cycle within a group.
const SubGroupCount = 8

// ValidSubGroup reports whether n is a defined rest sub-group number.
func ValidSubGroup(n int) bool {
	return n >= 1 && n <= SubGroupCount
}

// =============================================================================
// DUTY DATE - Operational 08:00-to-08:00 date
// =============================================================================

// Shift boundaries, in local hours. Intervals are half-open: 08:00 already
// belongs to the new day period, 20:00 to the new night period.
const (
	DayStartHour   = 8
	NightStartHour = 20
)

// DutyDate is an operational date: one 24-hour duty cycle starting at
// 08:00 local and ending at 08:00 the next calendar day. An instant between
// 00:00 and 07:59:59 belongs to the PREVIOUS calendar date's duty cycle.
//
// DutyDate carries no location. All whole-day arithmetic is done at a fixed
// reference hour (noon) so daylight-saving transitions cannot shift a
// day-difference by a fractional day.
type DutyDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDutyDate builds a DutyDate from calendar components.
// Out-of-range components are normalized the way time.Date normalizes them.
func NewDutyDate(year int, month time.Month, day int) DutyDate {
	t := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return DutyDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DutyDateOf maps an instant to its operational date using the instant's
// own location for the 08:00 boundary check.
func DutyDateOf(t time.Time) DutyDate {
	if t.Hour() < DayStartHour {
		t = t.AddDate(0, 0, -1)
	}
	return DutyDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// noon is the DST-safe reference instant used for day-difference math.
func (d DutyDate) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// AddDays returns the duty date n days later (earlier for negative n).
func (d DutyDate) AddDays(n int) DutyDate {
	t := d.noon().AddDate(0, 0, n)
	return DutyDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DaysBetween returns the whole-day displacement from a to b (b - a).
// Computed at the noon reference hour, so the result is exact even when
// the surrounding wall-clock days were 23 or 25 hours long.
func DaysBetween(a, b DutyDate) int {
	hours := b.noon().Sub(a.noon()).Hours()
	if hours >= 0 {
		return int(hours+12) / 24
	}
	return -int(-hours+12) / 24
}

// Comparison
func (d DutyDate) Before(other DutyDate) bool { return d.noon().Before(other.noon()) }
func (d DutyDate) After(other DutyDate) bool  { return d.noon().After(other.noon()) }
func (d DutyDate) Equal(other DutyDate) bool  { return d == other }
func (d DutyDate) IsZero() bool               { return d == DutyDate{} }

// String formats as ISO 8601 (2006-01-02).
func (d DutyDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDutyDate parses an ISO 8601 date (2006-01-02).
func ParseDutyDate(s string) (DutyDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DutyDate{}, fmt.Errorf("invalid duty date %q: %w", s, err)
	}
	return DutyDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MonthRange returns the first and last duty dates of a calendar month.
func MonthRange(year int, month time.Month) (first, last DutyDate) {
	first = NewDutyDate(year, month, 1)
	last = first.AddDays(daysInMonth(year, month) - 1)
	return first, last
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies "now". Production code uses SystemClock; tests substitute
// a fixed clock so duty derivation is reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real system clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. For tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// =============================================================================
// MODULAR ARITHMETIC HELPERS
// =============================================================================

// mod returns a modulo n, normalized into [0, n). Go's % operator keeps the
// sign of the dividend, which would rotate anchors the wrong way for dates
// before the anchor.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// floorDiv returns a/n rounded toward negative infinity. Truncating division
// would collapse the four days before the anchor and the four days after it
// into the same rest cycle.
func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
