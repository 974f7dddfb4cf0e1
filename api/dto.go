/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the wire contract. Dates travel as ISO 8601 (2006-01-02), instants as
  RFC 3339, money as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "time"

// =============================================================================
// SHIFT / CALENDAR
// =============================================================================

// DutyNowDTO is the live duty identity at the server clock's "now".
type DutyNowDTO struct {
	Instant    time.Time      `json:"instant"`
	Date       string         `json:"operational_date"`
	DayGroup   string         `json:"day_group"`
	NightGroup string         `json:"night_group"`
	OnShift    string         `json:"on_shift"`
	Resting    map[string]int `json:"resting_subgroups"` // group -> sub-group 1..8
}

// CalendarDayDTO is one operational date of the month view.
type CalendarDayDTO struct {
	Date        string         `json:"date"`
	DayGroup    string         `json:"day_group"`
	NightGroup  string         `json:"night_group"`
	Resting     map[string]int `json:"resting_subgroups"`
	HandoverFor string         `json:"handover_for"` // group whose night shift ends this date
}

// CalendarDTO is the whole-month duty derivation.
type CalendarDTO struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Days  []CalendarDayDTO `json:"days"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceDTO is one (date, group) attendance sheet. When no record is
// stored yet, Prefilled is true and Statuses carries the advisory
// defaults derived from the rest rotation.
type AttendanceDTO struct {
	Date        string            `json:"date"`
	Group       string            `json:"group"`
	Statuses    map[string]string `json:"statuses"`
	Substitutes map[int]string    `json:"substitutes"`
	Closed      bool              `json:"closed"`
	ClosedBy    string            `json:"closed_by,omitempty"`
	ClosedAt    *time.Time        `json:"closed_at,omitempty"`
	Prefilled   bool              `json:"prefilled"`
	Handover    bool              `json:"handover"`
}

// UpsertAttendanceRequest replaces the full sheet. ClosedBy, when set,
// closes the record under that identity.
type UpsertAttendanceRequest struct {
	Statuses    map[string]string `json:"statuses"`
	Substitutes map[int]string    `json:"substitutes"`
	ClosedBy    string            `json:"closed_by,omitempty"`
}

// =============================================================================
// BILLING
// =============================================================================

// GroupDueDTO is one group's reconciled monthly position.
type GroupDueDTO struct {
	Group       string `json:"group"`
	Consumption string `json:"consumption"`
	Quota       string `json:"quota"`
	Total       string `json:"total"`
	Paid        bool   `json:"paid"`
}

// BillingMonthDTO is the month's billing summary across all groups.
type BillingMonthDTO struct {
	Year   int           `json:"year"`
	Month  int           `json:"month"`
	Groups []GroupDueDTO `json:"groups"`
}

// SetPaidRequest toggles the paid overlay.
type SetPaidRequest struct {
	Paid bool `json:"paid"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

// BookingDTO represents a reservation in API responses.
type BookingDTO struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Requester  string    `json:"requester"`
	Cancelled  bool      `json:"cancelled"`
}

// CreateBookingRequest proposes a new reservation.
type CreateBookingRequest struct {
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Requester  string    `json:"requester"`
}

// AmendBookingRequest moves an existing reservation.
type AmendBookingRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Conflict string `json:"conflict_id,omitempty"` // blocking booking id, on 409
}
