package calendar

import (
	"errors"
	"testing"
	"time"
)

func tuesdayRules(t *testing.T) []WorkingHoursRule {
	return []WorkingHoursRule{
		{Weekday: time.Tuesday, StartTime: localTime(t, "09:00"), EndTime: localTime(t, "17:00"), Active: true},
	}
}

func TestIsWithinWorkingHours_HalfOpen(t *testing.T) {
	rules := tuesdayRules(t)
	tue := date(2025, 7, 22)
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{8, 45, false},
		{9, 0, true},
		{12, 30, true},
		{16, 45, true},
		{17, 0, false},
		{23, 45, false},
	}
	for _, tt := range tests {
		if got := IsWithinWorkingHours(tue, tt.hour, tt.minute, rules); got != tt.want {
			t.Errorf("%02d:%02d: expected %v, got %v", tt.hour, tt.minute, tt.want, got)
		}
	}
}

func TestIsWithinWorkingHours_NoRule(t *testing.T) {
	rules := tuesdayRules(t)
	if IsWithinWorkingHours(date(2025, 7, 21), 10, 0, rules) {
		t.Error("expected Monday without a rule to be outside hours")
	}
	if IsWithinWorkingHours(date(2025, 7, 22), 10, 0, nil) {
		t.Error("expected empty rules to be outside hours")
	}
}

func TestIsWithinWorkingHours_InactiveOrIncomplete(t *testing.T) {
	tue := date(2025, 7, 22)
	inactive := []WorkingHoursRule{
		{Weekday: time.Tuesday, StartTime: localTime(t, "09:00"), EndTime: localTime(t, "17:00"), Active: false},
	}
	if IsWithinWorkingHours(tue, 10, 0, inactive) {
		t.Error("expected inactive rule to be ignored")
	}
	noEnd := []WorkingHoursRule{
		{Weekday: time.Tuesday, StartTime: localTime(t, "09:00"), Active: true},
	}
	if IsWithinWorkingHours(tue, 10, 0, noEnd) {
		t.Error("expected rule without end time to be outside hours")
	}
}

func TestIsWithinWorkingHours_FirstActiveRuleWins(t *testing.T) {
	rules := []WorkingHoursRule{
		{Weekday: time.Tuesday, StartTime: localTime(t, "06:00"), EndTime: localTime(t, "20:00"), Active: false},
		{Weekday: time.Tuesday, StartTime: localTime(t, "09:00"), EndTime: localTime(t, "12:00"), Active: true},
		{Weekday: time.Tuesday, StartTime: localTime(t, "13:00"), EndTime: localTime(t, "18:00"), Active: true},
	}
	tue := date(2025, 7, 22)
	if !IsWithinWorkingHours(tue, 9, 0, rules) {
		t.Error("expected 09:00 within the first active rule")
	}
	if IsWithinWorkingHours(tue, 14, 0, rules) {
		t.Error("expected second active rule to be ignored")
	}
	if err := ValidateRules(rules); !errors.Is(err, ErrAmbiguousWorkingHours) {
		t.Errorf("expected ErrAmbiguousWorkingHours, got %v", err)
	}
	if err := ValidateRules(tuesdayRules(t)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsElapsed_Scenario(t *testing.T) {
	d := date(2025, 7, 22)
	now := on(d, 10, 0)
	if !IsElapsed(d, 9, 45, now) {
		t.Error("expected 09:45 to be elapsed")
	}
	if IsElapsed(d, 10, 0, now) {
		t.Error("expected 10:00 not to be elapsed at exactly 10:00")
	}
	if IsElapsed(d, 10, 15, now) {
		t.Error("expected 10:15 not to be elapsed")
	}
	if !IsElapsed(date(2025, 7, 21), 23, 45, now) {
		t.Error("expected previous day to be elapsed")
	}
}

func TestIsCurrent(t *testing.T) {
	d := date(2025, 7, 22)
	now := on(d, 10, 7)
	if !IsCurrent(d, 10, 0, now) {
		t.Error("expected 10:00 slot to be current at 10:07")
	}
	if IsCurrent(d, 10, 15, now) || IsCurrent(d, 9, 45, now) {
		t.Error("expected neighbouring slots not to be current")
	}
	if IsCurrent(d, 10, 0, on(d, 10, 15)) {
		t.Error("expected slot to stop being current at its end")
	}
}

func TestIsElapsed_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := date(2025, 7, 22)
	// 10:00 local is 08:00 UTC.
	now := time.Date(2025, 7, 22, 10, 0, 0, 0, loc)
	if !IsElapsed(d, 9, 45, now) {
		t.Error("expected 09:45 local to be elapsed")
	}
	if IsElapsed(d, 10, 0, now) {
		t.Error("expected 10:00 local not to be elapsed")
	}
}

func TestClassifySlot(t *testing.T) {
	rules := tuesdayRules(t)
	d := date(2025, 7, 22)
	now := on(d, 10, 0)

	c := ClassifySlot(d, 9, 30, rules, now)
	if c.State() != SlotWithinHoursElapsed {
		t.Errorf("09:30: expected %s, got %s", SlotWithinHoursElapsed, c.State())
	}
	c = ClassifySlot(d, 10, 0, rules, now)
	if !c.Current || c.State() != SlotWithinHoursFuture {
		t.Errorf("10:00: expected current within-hours-future, got %+v", c)
	}
	c = ClassifySlot(d, 7, 0, rules, now)
	if c.State() != SlotOutsideHoursElapsed {
		t.Errorf("07:00: expected %s, got %s", SlotOutsideHoursElapsed, c.State())
	}
	c = ClassifySlot(d, 18, 0, rules, now)
	if c.State() != SlotOutsideHoursFuture {
		t.Errorf("18:00: expected %s, got %s", SlotOutsideHoursFuture, c.State())
	}
}

func TestClassifyAppointment(t *testing.T) {
	d := date(2025, 7, 22)
	a := appt(1, d, 9, 0, 10, 0)
	tests := []struct {
		now  time.Time
		want AppointmentTiming
	}{
		{on(d, 8, 59), TimingUpcoming},
		{on(d, 9, 0), TimingInProgress},
		{on(d, 9, 59), TimingInProgress},
		{on(d, 10, 0), TimingPast},
	}
	for _, tt := range tests {
		if got := ClassifyAppointment(a, tt.now); got != tt.want {
			t.Errorf("now %s: expected %s, got %s", tt.now.Format("15:04"), tt.want, got)
		}
	}
}
