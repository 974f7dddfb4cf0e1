/*
anchors.go - Immutable rotation reference points

PURPOSE:
  The rotation has no absolute schedule table. Every position is computed
  as whole-day displacement from two fixed anchors:

  1. Day anchor:  a date plus the group known to be on DAY duty that date.
  2. Rest anchor: a date plus (reference group, sub-group 1..8) known to be
     on compensatory rest that date for that group.

  Both anchors are deployment constants, loaded once at startup and treated
  as read-only afterwards. A missing or malformed anchor is fatal: the
  engine must refuse to initialize rather than guess (see config package).

SEE ALSO:
  - clock.go: day/night duty derivation from the day anchor
  - rest.go: sub-group derivation from the rest anchor
*/
package rota

// AnchorConfig holds both rotation anchors.
type AnchorConfig struct {
	// DayAnchorDate is a duty date on which DayAnchorGroup was on day duty.
	DayAnchorDate  DutyDate
	DayAnchorGroup DutyGroup

	// RestAnchorDate is a duty date on which RestAnchorSubGroup of
	// RestAnchorGroup was on compensatory rest.
	RestAnchorDate     DutyDate
	RestAnchorGroup    DutyGroup
	RestAnchorSubGroup int
}

// Validate checks that both anchors are fully specified and in range.
// Returns an *AnchorError (wrapping ErrAnchorRequired) on the first
// problem found.
func (c AnchorConfig) Validate() error {
	if c.DayAnchorDate.IsZero() {
		return &AnchorError{Field: "day anchor date", Reason: "not set"}
	}
	if !c.DayAnchorGroup.Valid() {
		return &AnchorError{Field: "day anchor group", Reason: "must be A, B, C or D"}
	}
	if c.RestAnchorDate.IsZero() {
		return &AnchorError{Field: "rest anchor date", Reason: "not set"}
	}
	if !c.RestAnchorGroup.Valid() {
		return &AnchorError{Field: "rest anchor group", Reason: "must be A, B, C or D"}
	}
	if !ValidSubGroup(c.RestAnchorSubGroup) {
		return &AnchorError{Field: "rest anchor sub-group", Reason: "must be in 1..8"}
	}
	return nil
}
