package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rota-engine/attendance"
	"github.com/warp/rota-engine/billing"
	"github.com/warp/rota-engine/booking"
	"github.com/warp/rota-engine/rota"
	"github.com/warp/rota-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// ATTENDANCE RECORDS
// =============================================================================

func TestAttendance_RoundTrip(t *testing.T) {
	// GIVEN: A closed record with statuses, substitutes and a legacy list
	// WHEN: Writing and reading it back
	// THEN: Every field survives the trip

	store := newTestStore(t)
	ctx := context.Background()

	closedAt := time.Date(2025, time.December, 22, 9, 15, 0, 0, time.Local)
	rec := &attendance.Record{
		ID:    uuid.NewString(),
		Date:  rota.NewDutyDate(2025, time.December, 21),
		Group: rota.GroupB,
		Statuses: map[string]attendance.Status{
			"m1": attendance.StatusPresent,
			"m2": attendance.StatusSubstituted1,
			"m3": attendance.StatusSick,
		},
		Substitutes:   map[int]string{1: "ext-9"},
		LegacyPresent: []string{"old-1"},
		Closed:        true,
		ClosedBy:      "chief-7",
		ClosedAt:      closedAt,
	}
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, rec.Date, rec.Group)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Statuses, got.Statuses)
	assert.Equal(t, rec.Substitutes, got.Substitutes)
	assert.Equal(t, rec.LegacyPresent, got.LegacyPresent)
	assert.True(t, got.Closed)
	assert.Equal(t, "chief-7", got.ClosedBy)
	assert.True(t, closedAt.Equal(got.ClosedAt))
}

func TestAttendance_PutReplacesByDateGroupKey(t *testing.T) {
	// GIVEN: An existing record for (date, group)
	// WHEN: Writing a second record with the same key and the same ID
	// THEN: The row is replaced, not duplicated

	store := newTestStore(t)
	ctx := context.Background()
	date := rota.NewDutyDate(2026, time.January, 4)

	id := uuid.NewString()
	require.NoError(t, store.Put(ctx, &attendance.Record{
		ID: id, Date: date, Group: rota.GroupA,
		Statuses:    map[string]attendance.Status{"m1": attendance.StatusPresent},
		Substitutes: map[int]string{},
	}))
	require.NoError(t, store.Put(ctx, &attendance.Record{
		ID: id, Date: date, Group: rota.GroupA,
		Statuses:    map[string]attendance.Status{"m1": attendance.StatusSick},
		Substitutes: map[int]string{},
	}))

	got, err := store.Get(ctx, date, rota.GroupA)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusSick, got.Statuses["m1"])

	recs, err := store.ListMonth(ctx, 2026, time.January)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAttendance_ListMonthFiltersByMonth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, d := range []rota.DutyDate{
		rota.NewDutyDate(2026, time.January, 4),
		rota.NewDutyDate(2026, time.January, 8),
		rota.NewDutyDate(2026, time.February, 1),
	} {
		require.NoError(t, store.Put(ctx, &attendance.Record{
			ID: uuid.NewString(), Date: d, Group: rota.GroupA,
			Statuses: map[string]attendance.Status{}, Substitutes: map[int]string{},
		}))
	}

	recs, err := store.ListMonth(ctx, 2026, time.January)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestAttendance_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), rota.NewDutyDate(2026, time.January, 1), rota.GroupA)
	assert.ErrorIs(t, err, rota.ErrRecordNotFound)
}

func TestAttendance_Purge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := rota.NewDutyDate(2026, time.January, 4)

	require.NoError(t, store.Put(ctx, &attendance.Record{
		ID: uuid.NewString(), Date: date, Group: rota.GroupA,
		Statuses: map[string]attendance.Status{}, Substitutes: map[int]string{},
	}))

	require.NoError(t, store.Purge(ctx, date, rota.GroupA))
	_, err := store.Get(ctx, date, rota.GroupA)
	assert.ErrorIs(t, err, rota.ErrRecordNotFound)

	assert.ErrorIs(t, store.Purge(ctx, date, rota.GroupA), rota.ErrRecordNotFound)
}

// =============================================================================
// BOOKINGS
// =============================================================================

func testBooking(resourceID string, startH, endH int) booking.Booking {
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.Local)
	return booking.Booking{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		Start:      day.Add(time.Duration(startH) * time.Hour),
		End:        day.Add(time.Duration(endH) * time.Hour),
		Requester:  "alice",
		CreatedAt:  day,
	}
}

func TestBookings_CreateCheckedBlocksOverlap(t *testing.T) {
	// GIVEN: A committed reservation 10:00-12:00
	// WHEN: Inserting an overlapping one in the same store
	// THEN: The write is refused with the blocking booking identified;
	//       a touching 12:00-14:00 interval commits

	store := newTestStore(t)
	ctx := context.Background()

	first := testBooking("van", 10, 12)
	require.NoError(t, store.CreateChecked(ctx, first))

	err := store.CreateChecked(ctx, testBooking("van", 11, 13))
	require.Error(t, err)
	var conflict *rota.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.BookingID)

	require.NoError(t, store.CreateChecked(ctx, testBooking("van", 12, 14)))
}

func TestBookings_CancelFreesInterval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := testBooking("van", 10, 12)
	require.NoError(t, store.CreateChecked(ctx, b))
	require.NoError(t, store.Cancel(ctx, b.ID))

	require.NoError(t, store.CreateChecked(ctx, testBooking("van", 10, 12)))

	// The cancelled row survives for audit.
	got, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)

	all, err := store.ListByResource(ctx, "van")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookings_UpdateCheckedExcludesSelf(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := testBooking("van", 10, 12)
	require.NoError(t, store.CreateChecked(ctx, b))
	other := testBooking("van", 14, 15)
	require.NoError(t, store.CreateChecked(ctx, other))

	// Sliding within its own slot is fine.
	moved := b
	moved.Start = b.Start.Add(time.Hour)
	moved.End = b.End.Add(time.Hour)
	require.NoError(t, store.UpdateChecked(ctx, moved))

	got, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, moved.Start.Equal(got.Start))

	// Landing on someone else is not.
	moved.Start = other.Start.Add(30 * time.Minute)
	moved.End = moved.Start.Add(time.Hour)
	assert.ErrorIs(t, store.UpdateChecked(ctx, moved), rota.ErrBookingConflict)
}

func TestBookings_UnknownID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetBooking(ctx, "nope")
	assert.ErrorIs(t, err, rota.ErrRecordNotFound)
	assert.ErrorIs(t, store.Cancel(ctx, "nope"), rota.ErrRecordNotFound)

	ghost := testBooking("van", 10, 11)
	assert.ErrorIs(t, store.UpdateChecked(ctx, ghost), rota.ErrRecordNotFound)
}

func TestBookings_ServiceOverSQLiteView(t *testing.T) {
	// The combined store plugs into the booking service through Bookings().
	store := newTestStore(t)
	svc := booking.NewService(store.Bookings(), rota.SystemClock{})
	ctx := context.Background()

	b, err := svc.Reserve(ctx, "van", testBooking("van", 10, 12).Start, testBooking("van", 10, 12).End, "alice")
	require.NoError(t, err)

	_, err = svc.Amend(ctx, b.ID, b.Start.Add(time.Hour), b.End.Add(time.Hour))
	require.NoError(t, err)
}

// =============================================================================
// CLOSURES AND ORDERS
// =============================================================================

func TestClosures_DefaultUnpaidAndToggle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	paid, err := store.Paid(ctx, 2026, time.January, rota.GroupA)
	require.NoError(t, err)
	assert.False(t, paid)

	require.NoError(t, store.SetPaid(ctx, 2026, time.January, rota.GroupA, true))
	paid, err = store.Paid(ctx, 2026, time.January, rota.GroupA)
	require.NoError(t, err)
	assert.True(t, paid)

	require.NoError(t, store.SetPaid(ctx, 2026, time.January, rota.GroupA, false))
	paid, err = store.Paid(ctx, 2026, time.January, rota.GroupA)
	require.NoError(t, err)
	assert.False(t, paid)
}

func TestOrders_RangeIsHalfOpen(t *testing.T) {
	// GIVEN: Orders stored with local-time offsets
	// WHEN: Querying [from, to)
	// THEN: from is included, to is excluded, amounts survive as decimals

	store := newTestStore(t)
	ctx := context.Background()

	from := time.Date(2026, time.January, 1, 8, 0, 0, 0, time.Local)
	to := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.Local)

	require.NoError(t, store.AddOrder(ctx, billing.Order{
		ID: "on-from", StaffID: "m1", PlacedAt: from, Total: decimal.NewFromInt(10)}))
	require.NoError(t, store.AddOrder(ctx, billing.Order{
		ID: "on-to", StaffID: "m1", PlacedAt: to, Total: decimal.NewFromInt(20)}))
	require.NoError(t, store.AddOrder(ctx, billing.Order{
		ID: "inside", StaffID: "m1", PlacedAt: from.Add(240 * time.Hour), Total: decimal.RequireFromString("12.50")}))

	orders, err := store.OrdersInRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	byID := map[string]billing.Order{}
	for _, o := range orders {
		byID[o.ID] = o
	}
	assert.Contains(t, byID, "on-from")
	assert.Contains(t, byID, "inside")
	assert.True(t, byID["inside"].Total.Equal(decimal.RequireFromString("12.50")))

	// The 08:00 operational boundary still resolves after the round-trip.
	assert.Equal(t, rota.NewDutyDate(2026, time.January, 1), byID["on-from"].OperationalDate())
}
