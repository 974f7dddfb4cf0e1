package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rota-engine/booking"
	"github.com/warp/rota-engine/rota"
	"github.com/warp/rota-engine/store/memory"
)

func at(h, m int) time.Time {
	return time.Date(2025, time.June, 10, h, m, 0, 0, time.Local)
}

func newTestService() *booking.Service {
	return booking.NewService(memory.NewBookingStore(), rota.FixedClock{At: at(7, 0)})
}

// =============================================================================
// CONFLICT PREDICATE
// =============================================================================

func TestFindConflict_HalfOpenAndSymmetric(t *testing.T) {
	existing := []booking.Booking{
		{ID: "b1", ResourceID: "van", Start: at(10, 0), End: at(12, 0)},
	}

	// Touching endpoints on either side are free.
	assert.Nil(t, booking.FindConflict(existing, "van", at(8, 0), at(10, 0), ""))
	assert.Nil(t, booking.FindConflict(existing, "van", at(12, 0), at(14, 0), ""))

	// Any genuine overlap is blocked, whichever side leads.
	assert.NotNil(t, booking.FindConflict(existing, "van", at(11, 0), at(13, 0), ""))
	assert.NotNil(t, booking.FindConflict(existing, "van", at(9, 0), at(11, 0), ""))
	assert.NotNil(t, booking.FindConflict(existing, "van", at(10, 30), at(11, 30), ""))
	assert.NotNil(t, booking.FindConflict(existing, "van", at(9, 0), at(13, 0), ""))
}

func TestHasConflict_CancelledBookingDoesNotBlock(t *testing.T) {
	// GIVEN: A 15:00-17:00 booking on resource R
	// WHEN: Proposing 14:00-16:00
	// THEN: Blocked while the booking is live, free once it is cancelled

	live := []booking.Booking{
		{ID: "b1", ResourceID: "R", Start: at(15, 0), End: at(17, 0)},
	}
	assert.True(t, booking.HasConflict(live, "R", at(14, 0), at(16, 0), ""))

	live[0].Cancelled = true
	assert.False(t, booking.HasConflict(live, "R", at(14, 0), at(16, 0), ""))
}

func TestFindConflict_ScopedToResource(t *testing.T) {
	existing := []booking.Booking{
		{ID: "b1", ResourceID: "van", Start: at(10, 0), End: at(12, 0)},
	}
	assert.Nil(t, booking.FindConflict(existing, "car", at(10, 0), at(12, 0), ""))
}

func TestFindConflict_SkipsCancelledAndExcluded(t *testing.T) {
	existing := []booking.Booking{
		{ID: "gone", ResourceID: "van", Start: at(10, 0), End: at(12, 0), Cancelled: true},
		{ID: "mine", ResourceID: "van", Start: at(13, 0), End: at(14, 0)},
	}

	assert.Nil(t, booking.FindConflict(existing, "van", at(10, 0), at(12, 0), ""))
	assert.Nil(t, booking.FindConflict(existing, "van", at(13, 0), at(15, 0), "mine"))
	assert.NotNil(t, booking.FindConflict(existing, "van", at(13, 0), at(15, 0), ""))
}

// =============================================================================
// SERVICE LIFECYCLE
// =============================================================================

func TestReserve_RejectsEmptyOrInvertedInterval(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "van", at(10, 0), at(10, 0), "alice")
	assert.ErrorIs(t, err, rota.ErrInvalidInterval)

	_, err = svc.Reserve(ctx, "van", at(12, 0), at(10, 0), "alice")
	assert.ErrorIs(t, err, rota.ErrInvalidInterval)
}

func TestReserve_ConflictCarriesBlockingBooking(t *testing.T) {
	// GIVEN: An existing reservation on the resource
	// WHEN: A second request overlaps it
	// THEN: The error identifies the blocking booking and its interval

	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Reserve(ctx, "van", at(10, 0), at(12, 0), "alice")
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "van", at(11, 0), at(13, 0), "bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, rota.ErrBookingConflict)

	var conflict *rota.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "van", conflict.ResourceID)
	assert.Equal(t, first.ID, conflict.BookingID)
	assert.Equal(t, first.Start, conflict.Start)
	assert.Equal(t, first.End, conflict.End)
}

func TestReserve_TouchingEndpointsBothCommit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "van", at(9, 0), at(10, 0), "alice")
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "van", at(10, 0), at(11, 0), "bob")
	require.NoError(t, err)
}

func TestCancel_FreesIntervalButKeepsRecord(t *testing.T) {
	// GIVEN: A reservation blocking an interval
	// WHEN: It is cancelled
	// THEN: The interval opens up and the record stays listed for audit

	svc := newTestService()
	ctx := context.Background()

	b, err := svc.Reserve(ctx, "van", at(10, 0), at(12, 0), "alice")
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "van", at(10, 0), at(12, 0), "bob")
	require.ErrorIs(t, err, rota.ErrBookingConflict)

	require.NoError(t, svc.Cancel(ctx, b.ID))

	_, err = svc.Reserve(ctx, "van", at(10, 0), at(12, 0), "bob")
	require.NoError(t, err)

	all, err := svc.ListByResource(ctx, "van")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAmend_ExcludesOwnPriorVersion(t *testing.T) {
	// GIVEN: A booking being moved within or around its own slot
	// WHEN: The new interval overlaps only the prior version of itself
	// THEN: The edit commits; overlapping someone ELSE still fails

	svc := newTestService()
	ctx := context.Background()

	mine, err := svc.Reserve(ctx, "van", at(10, 0), at(12, 0), "alice")
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "van", at(14, 0), at(15, 0), "bob")
	require.NoError(t, err)

	moved, err := svc.Amend(ctx, mine.ID, at(11, 0), at(13, 0))
	require.NoError(t, err)
	assert.Equal(t, mine.ID, moved.ID)
	assert.Equal(t, at(11, 0), moved.Start)

	_, err = svc.Amend(ctx, mine.ID, at(14, 30), at(16, 0))
	assert.ErrorIs(t, err, rota.ErrBookingConflict)
}

func TestAmend_UnknownBooking(t *testing.T) {
	svc := newTestService()
	_, err := svc.Amend(context.Background(), "no-such-id", at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, rota.ErrRecordNotFound)
}
