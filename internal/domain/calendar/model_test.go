package calendar

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func date(y int, m time.Month, d int) CalendarDate {
	return CalendarDate{Year: y, Month: m, Day: d}
}

// on builds a UTC instant on the given date.
func on(d CalendarDate, hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func appt(id int64, d CalendarDate, sh, sm, eh, em int) Appointment {
	return NewAppointment(id, on(d, sh, sm), on(d, eh, em), 1, 1, StatusBooked)
}

func localTime(t *testing.T, s string) *civil.Time {
	t.Helper()
	ct, err := ParseLocalTime(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return &ct
}

func TestParseViewMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ViewMode
		wantErr bool
	}{
		{"day", ViewDay, false},
		{"Week", ViewWeek, false},
		{" MONTH ", ViewMonth, false},
		{"year", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseViewMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidViewMode) {
				t.Errorf("ParseViewMode(%q): expected ErrInvalidViewMode, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseViewMode(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseViewMode(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, in := range []string{"prev", "next", "TODAY"} {
		if _, err := ParseDirection(in); err != nil {
			t.Errorf("ParseDirection(%q): unexpected error: %v", in, err)
		}
	}
	if _, err := ParseDirection("back"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestParseLocalTime(t *testing.T) {
	got, err := ParseLocalTime("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour != 9 || got.Minute != 30 || got.Second != 0 {
		t.Errorf("expected 09:30:00, got %s", got)
	}

	got, err = ParseLocalTime("17:00:15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour != 17 || got.Second != 15 {
		t.Errorf("expected 17:00:15, got %s", got)
	}

	if _, err := ParseLocalTime("25:00"); !errors.Is(err, ErrInvalidLocalTime) {
		t.Errorf("expected ErrInvalidLocalTime, got %v", err)
	}
}

func TestNewAppointment_DerivesDateAndDuration(t *testing.T) {
	d := date(2025, 7, 22)
	a := appt(7, d, 9, 15, 10, 0)
	if a.Date != d {
		t.Errorf("expected date %s, got %s", d, a.Date)
	}
	if a.DurationMinutes != 45 {
		t.Errorf("expected 45 minutes, got %d", a.DurationMinutes)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestAppointment_Validate(t *testing.T) {
	d := date(2025, 7, 22)
	cases := map[string]Appointment{
		"zero length": appt(1, d, 9, 0, 9, 0),
		"inverted":    appt(2, d, 10, 0, 9, 0),
	}
	for name, a := range cases {
		err := a.Validate()
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("%s: expected ErrInvalidInterval, got %v", name, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected *ValidationError, got %T", name, err)
		}
		if ve.AppointmentID != a.ID {
			t.Errorf("%s: expected appointment id %d, got %d", name, a.ID, ve.AppointmentID)
		}
	}
}

func TestSlotClassification_State(t *testing.T) {
	tests := []struct {
		c    SlotClassification
		want SlotState
	}{
		{SlotClassification{WithinWorkingHours: true, Elapsed: true}, SlotWithinHoursElapsed},
		{SlotClassification{WithinWorkingHours: true}, SlotWithinHoursFuture},
		{SlotClassification{Elapsed: true}, SlotOutsideHoursElapsed},
		{SlotClassification{}, SlotOutsideHoursFuture},
		{SlotClassification{WithinWorkingHours: true, Current: true}, SlotWithinHoursFuture},
	}
	for _, tt := range tests {
		if got := tt.c.State(); got != tt.want {
			t.Errorf("%+v: expected %s, got %s", tt.c, tt.want, got)
		}
	}
}

func TestTimeSlot_MinuteOfDay(t *testing.T) {
	s := TimeSlot{Hour: 13, Minute: 45}
	if s.MinuteOfDay() != 825 {
		t.Errorf("expected 825, got %d", s.MinuteOfDay())
	}
}
