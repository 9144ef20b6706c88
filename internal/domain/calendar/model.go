package calendar

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// CalendarDate is a wall-calendar day with no time or location attached.
type CalendarDate = civil.Date

// SlotMinutes is the width of one day-view slot.
const SlotMinutes = 15

// SlotsPerDay is 24 hours * 4 slots per hour.
const SlotsPerDay = 24 * 60 / SlotMinutes

// ViewMode selects the date range a calendar view renders.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// DefaultViewMode is used when a request names no mode.
const DefaultViewMode = ViewDay

// ParseViewMode accepts "day", "week" or "month" in any case.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewDay, ViewWeek, ViewMonth:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
}

// Direction is a navigation step relative to the current view.
type Direction string

const (
	DirectionPrev  Direction = "prev"
	DirectionNext  Direction = "next"
	DirectionToday Direction = "today"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionPrev, DirectionNext, DirectionToday:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// AppointmentStatus mirrors the booking layer's appointment lifecycle.
type AppointmentStatus string

const (
	StatusProposed  AppointmentStatus = "proposed"
	StatusPending   AppointmentStatus = "pending"
	StatusBooked    AppointmentStatus = "booked"
	StatusArrived   AppointmentStatus = "arrived"
	StatusCheckedIn AppointmentStatus = "checked-in"
	StatusFulfilled AppointmentStatus = "fulfilled"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "noshow"
)

// Appointment is a booking supplied by the booking-management layer. The
// calendar engine only reads it.
type Appointment struct {
	ID              int64             `json:"id"`
	Date            CalendarDate      `json:"date"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	DurationMinutes int               `json:"duration_minutes"`
	ProviderID      int64             `json:"provider_id"`
	ResourceID      int64             `json:"resource_id"`
	Status          AppointmentStatus `json:"status"`
}

// Validate rejects appointments whose interval is empty or inverted.
func (a Appointment) Validate() error {
	if !a.EndTime.After(a.StartTime) {
		return &ValidationError{
			AppointmentID: a.ID,
			Reason:        fmt.Sprintf("end_time %s is not after start_time %s", a.EndTime.Format(time.RFC3339), a.StartTime.Format(time.RFC3339)),
		}
	}
	return nil
}

// NewAppointment derives Date and DurationMinutes from the interval so the
// record satisfies the booking invariants.
func NewAppointment(id int64, start, end time.Time, providerID, resourceID int64, status AppointmentStatus) Appointment {
	return Appointment{
		ID:              id,
		Date:            civil.DateOf(start),
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		ProviderID:      providerID,
		ResourceID:      resourceID,
		Status:          status,
	}
}

// TimeSlot is one 15-minute row of the day/week time axis.
type TimeSlot struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Label  string `json:"label"`
}

// MinuteOfDay returns Hour*60+Minute.
func (s TimeSlot) MinuteOfDay() int { return s.Hour*60 + s.Minute }

// WorkingHoursRule is one weekday row of the weekly working-hours table.
// A nil StartTime or EndTime means the row carries no hours.
type WorkingHoursRule struct {
	Weekday   time.Weekday `json:"weekday"`
	StartTime *civil.Time  `json:"start_time,omitempty"`
	EndTime   *civil.Time  `json:"end_time,omitempty"`
	Active    bool         `json:"active"`
}

// ParseLocalTime parses "HH:MM" or "HH:MM:SS" into a civil.Time.
func ParseLocalTime(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, fmt.Errorf("%w: %q", ErrInvalidLocalTime, s)
}

// LayoutAssignment places one appointment in a side-by-side column of its day.
type LayoutAssignment struct {
	AppointmentID int64 `json:"appointment_id"`
	Column        int   `json:"column"`
	TotalColumns  int   `json:"total_columns"`
}

// DayLayout is the packer output for a single date.
type DayLayout struct {
	Date         CalendarDate       `json:"date"`
	TotalColumns int                `json:"total_columns"`
	Assignments  []LayoutAssignment `json:"assignments"`
}

// SlotState is the presentation state of a slot; exactly one applies.
type SlotState string

const (
	SlotOutsideHoursFuture  SlotState = "outside-hours-future"
	SlotOutsideHoursElapsed SlotState = "outside-hours-elapsed"
	SlotWithinHoursElapsed  SlotState = "within-hours-elapsed"
	SlotWithinHoursFuture   SlotState = "within-hours-future"
)

// SlotClassification annotates a (date, slot) pair against a reference instant.
type SlotClassification struct {
	WithinWorkingHours bool `json:"within_working_hours"`
	Elapsed            bool `json:"elapsed"`
	Current            bool `json:"current"`
}

// State folds the classification into one of the four presentation states.
// A current slot is not elapsed, so it renders as within/outside-hours future.
func (c SlotClassification) State() SlotState {
	switch {
	case c.WithinWorkingHours && c.Elapsed:
		return SlotWithinHoursElapsed
	case c.WithinWorkingHours:
		return SlotWithinHoursFuture
	case c.Elapsed:
		return SlotOutsideHoursElapsed
	default:
		return SlotOutsideHoursFuture
	}
}

// AppointmentTiming places an appointment relative to "now".
type AppointmentTiming string

const (
	TimingUpcoming   AppointmentTiming = "upcoming"
	TimingInProgress AppointmentTiming = "in-progress"
	TimingPast       AppointmentTiming = "past"
)
