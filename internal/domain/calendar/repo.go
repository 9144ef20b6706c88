package calendar

import "context"

// AppointmentRepository loads bookings owned by the booking-management layer.
type AppointmentRepository interface {
	// ListBetween returns appointments dated from..to inclusive.
	ListBetween(ctx context.Context, from, to CalendarDate) ([]Appointment, error)
}

// WorkingHoursRepository loads the weekly working-hours table.
type WorkingHoursRepository interface {
	ListRules(ctx context.Context) ([]WorkingHoursRule, error)
}
