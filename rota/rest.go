/*
rest.go - Compensatory rest sub-group rotation

PURPOSE:
  Within each duty group, personnel are split into 8 cyclic sub-groups
  (1..8). Each day the rotation advances by one full A-B-C-D day cycle per
  sub-group step, so the schedule repeats every 4 x 8 = 32 operational days.

  The rest anchor pins one known point: on RestAnchorDate, sub-group
  RestAnchorSubGroup of RestAnchorGroup was resting. Other groups are one
  rotation position apart, so their equivalent reference date is the
  anchor date shifted by the group index offset (possibly negative).

ADVISORY ONLY:
  The result is scheduling metadata. The attendance package uses it to
  pre-fill a default compensatory-rest status, and presentation layers use
  it to badge the calendar. Nothing is persisted until a human confirms.
*/
package rota

// RestingSubGroup returns the sub-group (1..8) of the given duty group
// scheduled for compensatory rest on the given operational date.
//
// Deterministic and periodic: RestingSubGroup(g, d) == RestingSubGroup(g,
// d+32). Floor division keeps dates before the anchor rotating backward
// instead of stalling on the anchor's value.
func (c *ShiftClock) RestingSubGroup(group DutyGroup, date DutyDate) int {
	// Shift the anchor date so it references the queried group instead of
	// the anchor's group. Groups sit one day apart in the rotation.
	groupOffset := int(group) - int(c.anchors.RestAnchorGroup)
	reference := c.anchors.RestAnchorDate.AddDays(groupOffset)

	cycles := floorDiv(DaysBetween(reference, date), GroupCount)
	return mod(c.anchors.RestAnchorSubGroup-1+cycles, SubGroupCount) + 1
}
