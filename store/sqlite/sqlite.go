/*
Package sqlite provides the SQLite-backed implementation of the storage
contracts (attendance.Store, booking.Store, billing.ClosureStore,
billing.OrderSource).

SCHEMA:
  attendance_records:  one row per (duty_date, duty_group), UNIQUE key;
                       status/substitute/legacy maps stored as JSON
  bookings:            reservations; cancellation is a flag, never DELETE
  monthly_closures:    paid overlay keyed by (year, month, duty_group)
  orders:              external sales snapshot

CONCURRENCY:
  Opened in WAL mode (readers don't block, single writer). The booking
  check-then-write runs inside ONE transaction: re-read the resource's
  active bookings, evaluate the conflict predicate, insert. Two
  simultaneous reservations for overlapping intervals cannot both commit.

TIMESTAMPS:
  Stored as RFC 3339 with their original UTC offset preserved, so the
  operational-date boundary (a LOCAL 08:00 rule) still resolves correctly
  after a round-trip.

USAGE:
  store, err := sqlite.New(":memory:")
  defer store.Close()

SEE ALSO:
  - store/memory: in-memory implementation with the same contracts
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/rota-engine/attendance"
	"github.com/warp/rota-engine/billing"
	"github.com/warp/rota-engine/booking"
	"github.com/warp/rota-engine/rota"
)

// Store implements all storage contracts using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		duty_date TEXT NOT NULL,
		duty_group TEXT NOT NULL,
		statuses_json TEXT NOT NULL,
		substitutes_json TEXT NOT NULL,
		legacy_present_json TEXT NOT NULL,
		closed INTEGER NOT NULL DEFAULT 0,
		closed_by TEXT NOT NULL DEFAULT '',
		closed_at TEXT NOT NULL DEFAULT ''
	);

	-- One sheet per (operational date, duty group)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_date_group
		ON attendance_records(duty_date, duty_group);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		requester TEXT NOT NULL DEFAULT '',
		cancelled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_resource
		ON bookings(resource_id);

	CREATE TABLE IF NOT EXISTS monthly_closures (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		duty_group TEXT NOT NULL,
		paid INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (year, month, duty_group)
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		placed_at TEXT NOT NULL,
		total TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_placed_at
		ON orders(placed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

func (s *Store) Get(ctx context.Context, date rota.DutyDate, group rota.DutyGroup) (*attendance.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, duty_date, duty_group, statuses_json, substitutes_json,
		       legacy_present_json, closed, closed_by, closed_at
		FROM attendance_records WHERE duty_date = ? AND duty_group = ?`,
		date.String(), group.String())
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, rota.ErrRecordNotFound
	}
	return rec, err
}

// Put replaces the full record for its (date, group) key.
func (s *Store) Put(ctx context.Context, rec *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses, err := json.Marshal(rec.Statuses)
	if err != nil {
		return err
	}
	substitutes, err := json.Marshal(rec.Substitutes)
	if err != nil {
		return err
	}
	legacy, err := json.Marshal(rec.LegacyPresent)
	if err != nil {
		return err
	}
	closedAt := ""
	if !rec.ClosedAt.IsZero() {
		closedAt = rec.ClosedAt.Format(time.RFC3339Nano)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attendance_records
			(id, duty_date, duty_group, statuses_json, substitutes_json,
			 legacy_present_json, closed, closed_by, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(duty_date, duty_group) DO UPDATE SET
			statuses_json = excluded.statuses_json,
			substitutes_json = excluded.substitutes_json,
			legacy_present_json = excluded.legacy_present_json,
			closed = excluded.closed,
			closed_by = excluded.closed_by,
			closed_at = excluded.closed_at`,
		rec.ID, rec.Date.String(), rec.Group.String(),
		string(statuses), string(substitutes), string(legacy),
		boolToInt(rec.Closed), rec.ClosedBy, closedAt)
	return err
}

func (s *Store) ListMonth(ctx context.Context, year int, month time.Month) ([]*attendance.Record, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, duty_date, duty_group, statuses_json, substitutes_json,
		       legacy_present_json, closed, closed_by, closed_at
		FROM attendance_records WHERE duty_date LIKE ? ORDER BY duty_date`,
		prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Purge(ctx context.Context, date rota.DutyDate, group rota.DutyGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM attendance_records WHERE duty_date = ? AND duty_group = ?`,
		date.String(), group.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return rota.ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*attendance.Record, error) {
	var (
		rec         attendance.Record
		dateStr     string
		groupStr    string
		statuses    string
		substitutes string
		legacy      string
		closed      int
		closedAt    string
	)
	if err := row.Scan(&rec.ID, &dateStr, &groupStr, &statuses, &substitutes,
		&legacy, &closed, &rec.ClosedBy, &closedAt); err != nil {
		return nil, err
	}

	date, err := rota.ParseDutyDate(dateStr)
	if err != nil {
		return nil, err
	}
	group, err := rota.ParseGroup(groupStr)
	if err != nil {
		return nil, err
	}
	rec.Date = date
	rec.Group = group
	rec.Closed = closed != 0

	if err := json.Unmarshal([]byte(statuses), &rec.Statuses); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(substitutes), &rec.Substitutes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(legacy), &rec.LegacyPresent); err != nil {
		return nil, err
	}
	if closedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, closedAt)
		if err != nil {
			return nil, err
		}
		rec.ClosedAt = t
	}
	return &rec, nil
}

// =============================================================================
// BOOKING STORE
// =============================================================================

func (s *Store) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, resource_id, start_at, end_at, requester, cancelled, created_at
		FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return booking.Booking{}, rota.ErrRecordNotFound
	}
	return b, err
}

func (s *Store) ListByResource(ctx context.Context, resourceID string) ([]booking.Booking, error) {
	return s.listByResource(ctx, s.db, resourceID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) listByResource(ctx context.Context, q querier, resourceID string) ([]booking.Booking, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, resource_id, start_at, end_at, requester, cancelled, created_at
		FROM bookings WHERE resource_id = ? ORDER BY start_at`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateChecked inserts a booking iff no non-cancelled booking for the
// same resource overlaps. Check and insert share one transaction.
func (s *Store) CreateChecked(ctx context.Context, b booking.Booking) error {
	return s.checkedWrite(ctx, b, "", `
		INSERT INTO bookings (id, resource_id, start_at, end_at, requester, cancelled, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		b.ID, b.ResourceID,
		b.Start.Format(time.RFC3339Nano), b.End.Format(time.RFC3339Nano),
		b.Requester, b.CreatedAt.Format(time.RFC3339Nano))
}

// UpdateChecked moves a booking, excluding its own prior version from the
// conflict check.
func (s *Store) UpdateChecked(ctx context.Context, b booking.Booking) error {
	return s.checkedWrite(ctx, b, b.ID, `
		UPDATE bookings SET start_at = ?, end_at = ? WHERE id = ?`,
		b.Start.Format(time.RFC3339Nano), b.End.Format(time.RFC3339Nano), b.ID)
}

func (s *Store) checkedWrite(ctx context.Context, b booking.Booking, excludeID, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := s.listByResource(ctx, tx, b.ResourceID)
	if err != nil {
		return err
	}
	if conflict := booking.FindConflict(existing, b.ResourceID, b.Start, b.End, excludeID); conflict != nil {
		return &rota.ConflictError{
			ResourceID: b.ResourceID,
			BookingID:  conflict.ID,
			Start:      conflict.Start,
			End:        conflict.End,
		}
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if excludeID != "" {
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return rota.ErrRecordNotFound
		}
	}
	return tx.Commit()
}

// Cancel flags a booking cancelled. The row is kept for audit.
func (s *Store) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE bookings SET cancelled = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return rota.ErrRecordNotFound
	}
	return nil
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b         booking.Booking
		startStr  string
		endStr    string
		cancelled int
		created   string
	)
	if err := row.Scan(&b.ID, &b.ResourceID, &startStr, &endStr, &b.Requester, &cancelled, &created); err != nil {
		return booking.Booking{}, err
	}
	var err error
	if b.Start, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
		return booking.Booking{}, err
	}
	if b.End, err = time.Parse(time.RFC3339Nano, endStr); err != nil {
		return booking.Booking{}, err
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return booking.Booking{}, err
	}
	b.Cancelled = cancelled != 0
	return b, nil
}

// =============================================================================
// CLOSURE STORE
// =============================================================================

func (s *Store) Paid(ctx context.Context, year int, month time.Month, group rota.DutyGroup) (bool, error) {
	var paid int
	err := s.db.QueryRowContext(ctx, `
		SELECT paid FROM monthly_closures WHERE year = ? AND month = ? AND duty_group = ?`,
		year, int(month), group.String()).Scan(&paid)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return paid != 0, nil
}

func (s *Store) SetPaid(ctx context.Context, year int, month time.Month, group rota.DutyGroup, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_closures (year, month, duty_group, paid)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(year, month, duty_group) DO UPDATE SET paid = excluded.paid`,
		year, int(month), group.String(), boolToInt(paid))
	return err
}

// =============================================================================
// ORDER SOURCE
// =============================================================================

// AddOrder stores an external sales record.
func (s *Store) AddOrder(ctx context.Context, o billing.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, staff_id, placed_at, total) VALUES (?, ?, ?, ?)`,
		o.ID, o.StaffID, o.PlacedAt.Format(time.RFC3339Nano), o.Total.String())
	return err
}

// OrdersInRange returns orders with placed_at in [from, to). Timestamps
// round-trip with their original offset so the 08:00 boundary still
// resolves in the order's local time.
func (s *Store) OrdersInRange(ctx context.Context, from, to time.Time) ([]billing.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, staff_id, placed_at, total FROM orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Order
	for rows.Next() {
		var (
			o         billing.Order
			placedStr string
			totalStr  string
		)
		if err := rows.Scan(&o.ID, &o.StaffID, &placedStr, &totalStr); err != nil {
			return nil, err
		}
		if o.PlacedAt, err = time.Parse(time.RFC3339Nano, placedStr); err != nil {
			return nil, err
		}
		if o.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, err
		}
		if !o.PlacedAt.Before(from) && o.PlacedAt.Before(to) {
			out = append(out, o)
		}
	}
	return out, rows.Err()
}

// BookingStore adapts the combined Store to the booking.Store contract,
// whose Get would otherwise collide with the attendance Get.
type BookingStore struct {
	*Store
}

func (s BookingStore) Get(ctx context.Context, id string) (booking.Booking, error) {
	return s.GetBooking(ctx, id)
}

// Bookings returns the booking.Store view of this store.
func (s *Store) Bookings() booking.Store { return BookingStore{s} }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
