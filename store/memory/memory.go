/*
Package memory provides in-memory store implementations for tests and the
dev server.

All stores copy on read and write so callers never share mutable state
with the store. The booking store runs the conflict predicate and the
write under one mutex hold, satisfying the atomic check-then-write
contract the same way the SQLite store does with a transaction.
*/
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/warp/rota-engine/attendance"
	"github.com/warp/rota-engine/billing"
	"github.com/warp/rota-engine/booking"
	"github.com/warp/rota-engine/rota"
)

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

type attendanceKey struct {
	Date  rota.DutyDate
	Group rota.DutyGroup
}

// AttendanceStore implements attendance.Store in memory.
type AttendanceStore struct {
	mu      sync.RWMutex
	records map[attendanceKey]*attendance.Record
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{records: make(map[attendanceKey]*attendance.Record)}
}

func (s *AttendanceStore) Get(_ context.Context, date rota.DutyDate, group rota.DutyGroup) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[attendanceKey{Date: date, Group: group}]
	if !ok {
		return nil, rota.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *AttendanceStore) Put(_ context.Context, rec *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[attendanceKey{Date: rec.Date, Group: rec.Group}] = rec.Clone()
	return nil
}

func (s *AttendanceStore) ListMonth(_ context.Context, year int, month time.Month) ([]*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*attendance.Record
	for k, rec := range s.records {
		if k.Date.Year == year && k.Date.Month == month {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *AttendanceStore) Purge(_ context.Context, date rota.DutyDate, group rota.DutyGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attendanceKey{Date: date, Group: group}
	if _, ok := s.records[k]; !ok {
		return rota.ErrRecordNotFound
	}
	delete(s.records, k)
	return nil
}

// SeedLegacy installs a legacy-format record (flat present list, no
// status map). For tests and dev data.
func (s *AttendanceStore) SeedLegacy(date rota.DutyDate, group rota.DutyGroup, presentIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &attendance.Record{
		Date:          date,
		Group:         group,
		Statuses:      map[string]attendance.Status{},
		Substitutes:   map[int]string{},
		LegacyPresent: append([]string(nil), presentIDs...),
	}
	s.records[attendanceKey{Date: date, Group: group}] = rec
}

// =============================================================================
// BOOKING STORE
// =============================================================================

// BookingStore implements booking.Store in memory. A single mutex covers
// both the conflict check and the write, so concurrent reservations for
// the same interval cannot both commit.
type BookingStore struct {
	mu       sync.Mutex
	bookings map[string]booking.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]booking.Booking)}
}

func (s *BookingStore) Get(_ context.Context, id string) (booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.Booking{}, rota.ErrRecordNotFound
	}
	return b, nil
}

func (s *BookingStore) ListByResource(_ context.Context, resourceID string) ([]booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(resourceID), nil
}

func (s *BookingStore) CreateChecked(_ context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conflict := booking.FindConflict(s.snapshotLocked(b.ResourceID), b.ResourceID, b.Start, b.End, ""); conflict != nil {
		return &rota.ConflictError{
			ResourceID: b.ResourceID,
			BookingID:  conflict.ID,
			Start:      conflict.Start,
			End:        conflict.End,
		}
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *BookingStore) UpdateChecked(_ context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		return rota.ErrRecordNotFound
	}
	if conflict := booking.FindConflict(s.snapshotLocked(b.ResourceID), b.ResourceID, b.Start, b.End, b.ID); conflict != nil {
		return &rota.ConflictError{
			ResourceID: b.ResourceID,
			BookingID:  conflict.ID,
			Start:      conflict.Start,
			End:        conflict.End,
		}
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *BookingStore) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return rota.ErrRecordNotFound
	}
	b.Cancelled = true
	s.bookings[id] = b
	return nil
}

func (s *BookingStore) snapshotLocked(resourceID string) []booking.Booking {
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.ResourceID == resourceID {
			out = append(out, b)
		}
	}
	return out
}

// =============================================================================
// CLOSURE STORE
// =============================================================================

type closureKey struct {
	Year  int
	Month time.Month
	Group rota.DutyGroup
}

// ClosureStore implements billing.ClosureStore in memory.
type ClosureStore struct {
	mu   sync.RWMutex
	paid map[closureKey]bool
}

func NewClosureStore() *ClosureStore {
	return &ClosureStore{paid: make(map[closureKey]bool)}
}

func (s *ClosureStore) Paid(_ context.Context, year int, month time.Month, group rota.DutyGroup) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paid[closureKey{Year: year, Month: month, Group: group}], nil
}

func (s *ClosureStore) SetPaid(_ context.Context, year int, month time.Month, group rota.DutyGroup, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paid[closureKey{Year: year, Month: month, Group: group}] = paid
	return nil
}

// =============================================================================
// ORDER SOURCE
// =============================================================================

// OrderSource implements billing.OrderSource over a fixed slice.
type OrderSource struct {
	mu     sync.RWMutex
	orders []billing.Order
}

func NewOrderSource(orders ...billing.Order) *OrderSource {
	return &OrderSource{orders: append([]billing.Order(nil), orders...)}
}

// Add appends orders to the source.
func (s *OrderSource) Add(orders ...billing.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, orders...)
}

// OrdersInRange returns orders with PlacedAt in [from, to).
func (s *OrderSource) OrdersInRange(_ context.Context, from, to time.Time) ([]billing.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Order
	for _, o := range s.orders {
		if !o.PlacedAt.Before(from) && o.PlacedAt.Before(to) {
			out = append(out, o)
		}
	}
	return out, nil
}
