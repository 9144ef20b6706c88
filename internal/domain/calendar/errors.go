package calendar

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval       = errors.New("invalid appointment interval")
	ErrInvalidViewMode       = errors.New("invalid view mode")
	ErrInvalidDirection      = errors.New("invalid navigation direction")
	ErrInvalidLocalTime      = errors.New("invalid local time")
	ErrAmbiguousWorkingHours = errors.New("multiple active working-hours rules for one weekday")
)

// ValidationError identifies the appointment that broke the interval contract.
type ValidationError struct {
	AppointmentID int64
	Reason        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("appointment %d: %s", e.AppointmentID, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInterval }
