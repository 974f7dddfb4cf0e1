/*
Package billing aggregates attendance and sales into per-group monthly
dues, with a pure paid/unpaid overlay per (year, month, group).

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: an external sales record with a raw timestamp. The reconciler
    re-derives its operational date through the shift clock; an order
    rung up at 03:00 belongs to the previous day's duty cycle.
  - OrderSource: read-only snapshot of orders in a time window
  - ClosureStore: the paid overlay. Toggling paid never touches the
    underlying attendance or sales data.

MONEY:
  All amounts are decimal.Decimal. Head-count quotas multiply a configured
  per-head price by integer counts; floats would drift.
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/rota-engine/rota"
)

// Order is one external sales record attributable to a staff member.
type Order struct {
	ID       string
	StaffID  string
	PlacedAt time.Time
	Total    decimal.Decimal
}

// OperationalDate returns the duty date the order belongs to, honoring
// the 08:00 boundary of the order's own timestamp location.
func (o Order) OperationalDate() rota.DutyDate {
	return rota.DutyDateOf(o.PlacedAt)
}

// OrderSource supplies a consistent snapshot of orders whose timestamps
// fall in [from, to).
type OrderSource interface {
	OrdersInRange(ctx context.Context, from, to time.Time) ([]Order, error)
}

// ClosureStore holds the per-(year, month, group) paid flags.
// A missing entry reads as unpaid.
type ClosureStore interface {
	Paid(ctx context.Context, year int, month time.Month, group rota.DutyGroup) (bool, error)
	SetPaid(ctx context.Context, year int, month time.Month, group rota.DutyGroup, paid bool) error
}

// GroupDue is one group's reconciled position for a month.
type GroupDue struct {
	Group       rota.DutyGroup
	Consumption decimal.Decimal // sum of attributed order totals
	Quota       decimal.Decimal // head-count quota term
	Total       decimal.Decimal // Consumption + Quota
	Paid        bool
}
