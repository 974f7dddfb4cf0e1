/*
reconciler.go - Monthly due aggregation

PURPOSE:
  Computes what each duty group owes for a calendar month:

    due = sum of order totals attributed to the group's members by
          operational date
        + paying head-count x quota price, for every operational date of
          the month that is NOT the group's handover day

  Pure given its inputs: no hidden mutation, so repeated calls over an
  unchanged snapshot return identical results and re-display/re-export is
  always safe.

THE HANDOVER EXCLUSION:
  A group's night shift walks off at 08:00 on the next operational date.
  Counting heads on that date would bill the same physical presence twice
  (once on the night-shift date, once on the morning it ends). The shift
  clock identifies those dates and the quota term skips them. Stored
  figures are NOT suppressed - only the aggregate skips them; display
  layers badge the day instead (see DESIGN.md).
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/rota-engine/attendance"
	"github.com/warp/rota-engine/roster"
	"github.com/warp/rota-engine/rota"
)

// Reconciler aggregates orders and attendance into monthly dues.
type Reconciler struct {
	shift      *rota.ShiftClock
	records    attendance.Store
	orders     OrderSource
	closures   ClosureStore
	quotaPrice decimal.Decimal
}

// NewReconciler builds a reconciler. A zero quotaPrice disables the quota
// term (the head-count contribution is simply zero, not an error).
func NewReconciler(shift *rota.ShiftClock, records attendance.Store, orders OrderSource,
	closures ClosureStore, quotaPrice decimal.Decimal) *Reconciler {
	return &Reconciler{
		shift:      shift,
		records:    records,
		orders:     orders,
		closures:   closures,
		quotaPrice: quotaPrice,
	}
}

// MonthlyDue computes one group's amount due for a calendar month against
// the supplied roster snapshot.
func (r *Reconciler) MonthlyDue(ctx context.Context, year int, month time.Month,
	group rota.DutyGroup, staff roster.Roster) (decimal.Decimal, error) {

	consumption, err := r.consumption(ctx, year, month, group, staff)
	if err != nil {
		return decimal.Zero, err
	}
	quota, err := r.quota(ctx, year, month, group, staff)
	if err != nil {
		return decimal.Zero, err
	}
	return consumption.Add(quota), nil
}

// MonthlySummary reconciles every group for a month, including the paid
// overlay. Used by the billing view.
func (r *Reconciler) MonthlySummary(ctx context.Context, year int, month time.Month,
	staff roster.Roster) ([]GroupDue, error) {

	out := make([]GroupDue, 0, rota.GroupCount)
	for _, g := range rota.Groups() {
		consumption, err := r.consumption(ctx, year, month, g, staff)
		if err != nil {
			return nil, err
		}
		quota, err := r.quota(ctx, year, month, g, staff)
		if err != nil {
			return nil, err
		}
		paid, err := r.closures.Paid(ctx, year, month, g)
		if err != nil {
			return nil, err
		}
		out = append(out, GroupDue{
			Group:       g,
			Consumption: consumption,
			Quota:       quota,
			Total:       consumption.Add(quota),
			Paid:        paid,
		})
	}
	return out, nil
}

// consumption sums order totals whose operational date falls inside the
// month and whose staff member serves in the group.
func (r *Reconciler) consumption(ctx context.Context, year int, month time.Month,
	group rota.DutyGroup, staff roster.Roster) (decimal.Decimal, error) {

	first, last := rota.MonthRange(year, month)

	// Operational dates [first, last] cover wall-clock instants from
	// 08:00 on the first to 08:00 the day after the last.
	from := time.Date(first.Year, first.Month, first.Day, rota.DayStartHour, 0, 0, 0, time.Local)
	end := last.AddDays(1)
	to := time.Date(end.Year, end.Month, end.Day, rota.DayStartHour, 0, 0, 0, time.Local)

	orders, err := r.orders.OrdersInRange(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, o := range orders {
		g, ok := staff.GroupOf(o.StaffID)
		if !ok || g != group {
			continue
		}
		d := o.OperationalDate()
		if d.Before(first) || d.After(last) {
			continue
		}
		sum = sum.Add(o.Total)
	}
	return sum, nil
}

// quota computes the head-count term: paying heads x quota price for
// every non-handover operational date of the month.
func (r *Reconciler) quota(ctx context.Context, year int, month time.Month,
	group rota.DutyGroup, staff roster.Roster) (decimal.Decimal, error) {

	if r.quotaPrice.IsZero() {
		return decimal.Zero, nil
	}

	recs, err := r.records.ListMonth(ctx, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	byDate := make(map[rota.DutyDate]*attendance.Record)
	for _, rec := range recs {
		if rec.Group == group {
			byDate[rec.Date] = rec
		}
	}

	members := staff.MembersOf(group)
	heads := 0
	first, last := rota.MonthRange(year, month)
	for d := first; !d.After(last); d = d.AddDays(1) {
		if r.shift.IsHandoverDay(d, group) {
			continue
		}
		rec, ok := byDate[d]
		if !ok {
			continue
		}
		heads += payingHeadCount(rec, members)
	}
	return r.quotaPrice.Mul(decimal.NewFromInt(int64(heads))), nil
}

// payingHeadCount counts group members whose resolved status is present
// or an active substitution, skipping quota-exempt roles (the shared
// communal identity and elevated administrators).
func payingHeadCount(rec *attendance.Record, members []roster.Member) int {
	n := 0
	for _, m := range members {
		if m.QuotaExempt() {
			continue
		}
		status, _ := rec.StatusOf(m.ID)
		if status.CountsPresent() {
			n++
		}
	}
	return n
}

// SetPaid toggles the paid overlay for (year, month, group). A pure
// boolean flag: historical attendance and sales data are never altered.
func (r *Reconciler) SetPaid(ctx context.Context, year int, month time.Month,
	group rota.DutyGroup, paid bool) error {
	return r.closures.SetPaid(ctx, year, month, group, paid)
}
