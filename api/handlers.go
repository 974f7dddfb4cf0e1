/*
handlers.go - HTTP API handlers for the rotation engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response and JSON
  serialization, then delegates to the domain services. No rotation math
  lives here: every screen-facing derivation goes through the one shared
  ShiftClock.

ERROR HANDLING:
  - 400: validation errors (bad dates, inverted intervals, bad statuses)
  - 404: missing records/bookings
  - 409: booking conflicts (with the blocking booking's id)
  - 500: storage failures, propagated unchanged

AUTHORIZATION:
  None here. Close/reopen/paid operations carry the acting identity in
  the X-Actor header (or request body) and trust the caller to have
  authorized it - authorization is an external collaborator.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/rota-engine/attendance"
	"github.com/warp/rota-engine/billing"
	"github.com/warp/rota-engine/booking"
	"github.com/warp/rota-engine/roster"
	"github.com/warp/rota-engine/rota"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the engine's domain services.
type Handler struct {
	Shift      *rota.ShiftClock
	Ledger     *attendance.Ledger
	Reconciler *billing.Reconciler
	Bookings   *booking.Service
	Clock      rota.Clock
	Staff      roster.Roster
}

// NewHandler wires a handler.
func NewHandler(shift *rota.ShiftClock, ledger *attendance.Ledger,
	reconciler *billing.Reconciler, bookings *booking.Service,
	clock rota.Clock, staff roster.Roster) *Handler {
	return &Handler{
		Shift:      shift,
		Ledger:     ledger,
		Reconciler: reconciler,
		Bookings:   bookings,
		Clock:      clock,
		Staff:      staff,
	}
}

// =============================================================================
// SHIFT ENDPOINTS
// =============================================================================

// GetNow returns the active duty identity at the server clock's now.
// GET /api/shift/now
func (h *Handler) GetNow(w http.ResponseWriter, r *http.Request) {
	now := h.Clock.Now()
	day, night, date := h.Shift.ActiveDuty(now)

	writeJSON(w, http.StatusOK, DutyNowDTO{
		Instant:    now,
		Date:       date.String(),
		DayGroup:   day.String(),
		NightGroup: night.String(),
		OnShift:    h.Shift.ShiftAt(now).String(),
		Resting:    h.restingAll(date),
	})
}

// GetCalendar returns the whole-month duty derivation.
// GET /api/shift/calendar?year=2025&month=12
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if !ok {
		return
	}

	first, last := rota.MonthRange(year, month)
	dto := CalendarDTO{Year: year, Month: int(month)}
	for d := first; !d.After(last); d = d.AddDays(1) {
		day := h.Shift.DayGroupOn(d)
		dto.Days = append(dto.Days, CalendarDayDTO{
			Date:       d.String(),
			DayGroup:   day.String(),
			NightGroup: h.Shift.NightGroupOn(d).String(),
			Resting:    h.restingAll(d),
			// Exactly one group hands over each date: the one whose night
			// shift ended at 08:00, two rotation steps behind the day group.
			HandoverFor: day.Add(2).String(),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) restingAll(date rota.DutyDate) map[string]int {
	out := make(map[string]int, rota.GroupCount)
	for _, g := range rota.Groups() {
		out[g.String()] = h.Shift.RestingSubGroup(g, date)
	}
	return out
}

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// GetAttendance returns the sheet for (date, group), or the advisory
// prefill when nothing is stored yet.
// GET /api/attendance/{date}/{group}
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	date, group, ok := parseDateGroup(w, r)
	if !ok {
		return
	}

	dto := AttendanceDTO{
		Date:     date.String(),
		Group:    group.String(),
		Handover: h.Shift.IsHandoverDay(date, group),
	}

	rec, err := h.Ledger.Record(r.Context(), date, group)
	switch {
	case err == nil:
		dto.Statuses = statusesOut(rec)
		dto.Substitutes = rec.Substitutes
		dto.Closed = rec.Closed
		dto.ClosedBy = rec.ClosedBy
		if !rec.ClosedAt.IsZero() {
			t := rec.ClosedAt
			dto.ClosedAt = &t
		}
	case errors.Is(err, rota.ErrRecordNotFound):
		dto.Prefilled = true
		dto.Statuses = make(map[string]string)
		for id, s := range h.Ledger.Prefill(date, group, h.Staff) {
			dto.Statuses[id] = string(s)
		}
		dto.Substitutes = map[int]string{}
	default:
		writeError(w, http.StatusInternalServerError, "Failed to load attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpsertAttendance replaces the full sheet for (date, group).
// PUT /api/attendance/{date}/{group}
func (h *Handler) UpsertAttendance(w http.ResponseWriter, r *http.Request) {
	date, group, ok := parseDateGroup(w, r)
	if !ok {
		return
	}

	var req UpsertAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	statuses := make(map[string]attendance.Status, len(req.Statuses))
	for id, s := range req.Statuses {
		statuses[id] = attendance.Status(s)
	}

	if err := h.Ledger.Upsert(r.Context(), date, group, statuses, req.Substitutes, req.ClosedBy); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to upsert attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReopenAttendance clears the closed state of a sheet.
// POST /api/attendance/{date}/{group}/reopen
func (h *Handler) ReopenAttendance(w http.ResponseWriter, r *http.Request) {
	date, group, ok := parseDateGroup(w, r)
	if !ok {
		return
	}

	actor := r.Header.Get("X-Actor")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "X-Actor header required", nil)
		return
	}

	err := h.Ledger.Reopen(r.Context(), date, group, actor)
	if errors.Is(err, rota.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Attendance record not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reopen attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeAttendance hard-deletes one sheet. Administrative use only.
// DELETE /api/attendance/{date}/{group}
func (h *Handler) PurgeAttendance(w http.ResponseWriter, r *http.Request) {
	date, group, ok := parseDateGroup(w, r)
	if !ok {
		return
	}

	err := h.Ledger.Purge(r.Context(), date, group)
	if errors.Is(err, rota.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Attendance record not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to purge attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusesOut(rec *attendance.Record) map[string]string {
	out := make(map[string]string, len(rec.Statuses))
	for id, s := range rec.Statuses {
		out[id] = string(s)
	}
	return out
}

// =============================================================================
// BILLING ENDPOINTS
// =============================================================================

// GetBillingMonth returns per-group dues and paid flags for a month.
// GET /api/billing/{year}/{month}
func (h *Handler) GetBillingMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if !ok {
		return
	}

	dues, err := h.Reconciler.MonthlySummary(r.Context(), year, month, h.Staff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reconcile month", err)
		return
	}

	dto := BillingMonthDTO{Year: year, Month: int(month)}
	for _, d := range dues {
		dto.Groups = append(dto.Groups, GroupDueDTO{
			Group:       d.Group.String(),
			Consumption: d.Consumption.String(),
			Quota:       d.Quota.String(),
			Total:       d.Total.String(),
			Paid:        d.Paid,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// SetPaid toggles the paid overlay for (year, month, group).
// PUT /api/billing/{year}/{month}/{group}/paid
func (h *Handler) SetPaid(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if !ok {
		return
	}
	group, err := rota.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group", err)
		return
	}

	var req SetPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Reconciler.SetPaid(r.Context(), year, month, group, req.Paid); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set paid flag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOOKING ENDPOINTS
// =============================================================================

// ListBookings returns all bookings for a resource, cancelled included.
// GET /api/bookings?resource=van-1
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource")
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, "resource query parameter required", nil)
		return
	}

	bookings, err := h.Bookings.ListByResource(r.Context(), resourceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBooking reserves an interval; 409 with the blocking booking's id
// on overlap.
// POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "resource_id is required", nil)
		return
	}

	b, err := h.Bookings.Reserve(r.Context(), req.ResourceID, req.Start, req.End, req.Requester)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

// AmendBooking moves a reservation; the conflict re-check excludes the
// booking's own prior version.
// PUT /api/bookings/{id}
func (h *Handler) AmendBooking(w http.ResponseWriter, r *http.Request) {
	var req AmendBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	b, err := h.Bookings.Amend(r.Context(), chi.URLParam(r, "id"), req.Start, req.End)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// CancelBooking flags a reservation cancelled.
// POST /api/bookings/{id}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	err := h.Bookings.Cancel(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, rota.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Booking not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel booking", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeBookingError(w http.ResponseWriter, err error) {
	var conflict *rota.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "Booking conflict",
			Details:  conflict.Error(),
			Conflict: conflict.BookingID,
		})
	case errors.Is(err, rota.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "End must be after start", err)
	case errors.Is(err, rota.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Booking not found", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to save booking", err)
	}
}

func toBookingDTO(b booking.Booking) BookingDTO {
	return BookingDTO{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		Start:      b.Start,
		End:        b.End,
		Requester:  b.Requester,
		Cancelled:  b.Cancelled,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDateGroup(w http.ResponseWriter, r *http.Request) (rota.DutyDate, rota.DutyGroup, bool) {
	date, err := rota.ParseDutyDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return rota.DutyDate{}, 0, false
	}
	group, err := rota.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group (use A-D)", err)
		return rota.DutyDate{}, 0, false
	}
	return date, group, true
}

func parseYearMonth(w http.ResponseWriter, yearStr, monthStr string) (int, time.Month, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, 0, false
	}
	m, err := strconv.Atoi(monthStr)
	if err != nil || m < 1 || m > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return 0, 0, false
	}
	return year, time.Month(m), true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
