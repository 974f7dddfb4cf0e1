package rota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/rota-engine/rota"
)

// Rest anchor in testAnchors: 2025-12-12 -> group B, sub-group 1 resting.

func TestRestingSubGroup_OneCycleAfterAnchor(t *testing.T) {
	// GIVEN: Rest anchor 2025-12-12 -> group B, sub-group 1
	// WHEN: Querying group B on 2025-12-16 (4 days later, one full cycle)
	// THEN: Sub-group 2 is resting

	clock := newTestClock(t)
	assert.Equal(t, 2, clock.RestingSubGroup(rota.GroupB, rota.NewDutyDate(2025, time.December, 16)))
}

func TestRestingSubGroup_AnchorDate(t *testing.T) {
	clock := newTestClock(t)
	assert.Equal(t, 1, clock.RestingSubGroup(rota.GroupB, rota.NewDutyDate(2025, time.December, 12)))
	// Within the same 4-day cycle the sub-group does not advance.
	assert.Equal(t, 1, clock.RestingSubGroup(rota.GroupB, rota.NewDutyDate(2025, time.December, 15)))
}

func TestRestingSubGroup_BeforeAnchor_FloorDivision(t *testing.T) {
	// GIVEN: A date one day before the rest anchor
	// WHEN: Deriving the resting sub-group for the anchor group
	// THEN: The rotation steps back to 8, not forward or to 0

	clock := newTestClock(t)
	assert.Equal(t, 8, clock.RestingSubGroup(rota.GroupB, rota.NewDutyDate(2025, time.December, 11)))
	assert.Equal(t, 8, clock.RestingSubGroup(rota.GroupB, rota.NewDutyDate(2025, time.December, 8)))
	assert.Equal(t, 7, clock.RestingSubGroup(rota.GroupB, rota.NewDutyDate(2025, time.December, 7)))
}

func TestRestingSubGroup_GroupOffsetShiftsReference(t *testing.T) {
	// GIVEN: Groups one rotation position apart
	// WHEN: Querying the group after (C) and before (A) the anchor group
	// THEN: Their reference dates shift by +1/-1 day respectively

	clock := newTestClock(t)

	assert.Equal(t, 1, clock.RestingSubGroup(rota.GroupC, rota.NewDutyDate(2025, time.December, 13)))
	assert.Equal(t, 2, clock.RestingSubGroup(rota.GroupC, rota.NewDutyDate(2025, time.December, 17)))
	assert.Equal(t, 1, clock.RestingSubGroup(rota.GroupA, rota.NewDutyDate(2025, time.December, 11)))
}

func TestRestingSubGroup_Periodic32Days(t *testing.T) {
	// GIVEN: Any (group, date) pair across a few months
	// WHEN: Comparing with the same date 32 days later
	// THEN: The resting sub-group is identical (4-day cycle x 8 sub-groups)

	clock := newTestClock(t)
	start := rota.NewDutyDate(2025, time.October, 1)
	for _, g := range rota.Groups() {
		for i := 0; i < 96; i++ {
			d := start.AddDays(i)
			assert.Equal(t,
				clock.RestingSubGroup(g, d),
				clock.RestingSubGroup(g, d.AddDays(32)),
				"group %s date %s", g, d)
		}
	}
}

func TestRestingSubGroup_AlwaysInRange(t *testing.T) {
	clock := newTestClock(t)
	start := rota.NewDutyDate(2020, time.January, 1)
	for _, g := range rota.Groups() {
		for i := 0; i < 400; i += 3 {
			sub := clock.RestingSubGroup(g, start.AddDays(i))
			assert.True(t, rota.ValidSubGroup(sub), "got %d for group %s day %d", sub, g, i)
		}
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, time.June, 1, h, 0, 0, 0, time.UTC) }

	// Touching endpoints do not overlap.
	assert.False(t, rota.Overlaps(at(9), at(10), at(10), at(11)))
	assert.False(t, rota.Overlaps(at(10), at(11), at(9), at(10)))

	// Genuine overlap is symmetric.
	assert.True(t, rota.Overlaps(at(14), at(16), at(15), at(17)))
	assert.True(t, rota.Overlaps(at(15), at(17), at(14), at(16)))

	// Containment counts as overlap.
	assert.True(t, rota.Overlaps(at(9), at(18), at(12), at(13)))
}
