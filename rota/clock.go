/*
clock.go - ShiftClock: instant -> duty identity

PURPOSE:
  Maps a point in time to the active duty identity: which group covers the
  day shift, which covers the night shift, and which operational date is
  open. This is THE single implementation of the rotation math; every
  screen and aggregate consults it instead of re-deriving the arithmetic.

THE MATH:
  dayGroup(d) = (anchorGroup + daysBetween(anchorDate, d)) mod 4

  The day difference is computed at a fixed reference hour (noon), so the
  23- and 25-hour wall-clock days around DST transitions cannot skew the
  whole-day count. Dates before the anchor produce negative displacements;
  mod() normalizes them into the rotation.

DERIVED, NOT ANCHORED:
  The night group is the previous operational date's day group. It is a
  derived invariant of the forward rotation, never a second free parameter:
  anchoring it independently is exactly the drift bug this module exists
  to eliminate.

HANDOVER ("smontante") DAYS:
  A group that worked the night shift of operational date d walks off at
  08:00 the next morning, i.e. on operational date d+1. That date is the
  group's handover day: the same physical presence already counted on d,
  so aggregates (billing head-counts) must skip it. With the forward
  rotation this reduces to dayGroup(date) == group+2.
*/
package rota

import "time"

// ShiftClock derives duty identities from the anchor configuration.
// It is stateless and safe for concurrent use.
type ShiftClock struct {
	anchors AnchorConfig
}

// NewShiftClock validates the anchors and builds a clock.
// An invalid configuration is a startup error, not a per-call one.
func NewShiftClock(anchors AnchorConfig) (*ShiftClock, error) {
	if err := anchors.Validate(); err != nil {
		return nil, err
	}
	return &ShiftClock{anchors: anchors}, nil
}

// Anchors returns the (read-only) anchor configuration.
func (c *ShiftClock) Anchors() AnchorConfig { return c.anchors }

// OperationalDate maps an instant to its 08:00-to-08:00 duty date,
// using the instant's own location for the boundary check.
func (c *ShiftClock) OperationalDate(t time.Time) DutyDate {
	return DutyDateOf(t)
}

// DayGroupOn returns the group on day duty for an operational date.
// Total: any date, past or future, yields a deterministic answer.
func (c *ShiftClock) DayGroupOn(date DutyDate) DutyGroup {
	offset := DaysBetween(c.anchors.DayAnchorDate, date)
	return c.anchors.DayAnchorGroup.Add(offset)
}

// NightGroupOn returns the group on night duty for an operational date:
// the day group of the immediately preceding operational date.
func (c *ShiftClock) NightGroupOn(date DutyDate) DutyGroup {
	return c.DayGroupOn(date.AddDays(-1))
}

// ActiveDuty resolves an instant to the full duty identity.
func (c *ShiftClock) ActiveDuty(t time.Time) (day, night DutyGroup, date DutyDate) {
	date = DutyDateOf(t)
	day = c.DayGroupOn(date)
	night = c.NightGroupOn(date)
	return day, night, date
}

// ShiftAt returns the single group actually on shift at an instant:
// the day group during [08:00, 20:00), the night group otherwise.
// 08:00 and 20:00 exactly belong to the period they open.
func (c *ShiftClock) ShiftAt(t time.Time) DutyGroup {
	day, night, _ := c.ActiveDuty(t)
	h := t.Hour()
	if h >= DayStartHour && h < NightStartHour {
		return day
	}
	return night
}

// IsHandoverDay reports whether date is the handover day for group: the
// operational date on which the group's most recent night shift ends.
// Attendance recorded for the group on this date must be excluded from
// head-count aggregates to avoid double-counting (see billing package).
func (c *ShiftClock) IsHandoverDay(date DutyDate, group DutyGroup) bool {
	return c.NightGroupOn(date.AddDays(-1)) == group
}
