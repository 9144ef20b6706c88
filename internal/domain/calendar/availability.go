package calendar

import (
	"fmt"
	"time"
)

func minuteOfDay(hour, minute int) int { return hour*60 + minute }

// ruleFor returns the first active rule for the date's weekday. Callers that
// need to detect duplicate active rules use ValidateRules.
func ruleFor(date CalendarDate, rules []WorkingHoursRule) (WorkingHoursRule, bool) {
	wd := weekday(date)
	for _, r := range rules {
		if r.Weekday == wd && r.Active {
			return r, true
		}
	}
	return WorkingHoursRule{}, false
}

// IsWithinWorkingHours reports whether hour:minute on date falls inside the
// half-open [start, end) window of the weekday's active rule. A day without
// an active rule, or whose rule lacks a start or end time, is outside hours.
func IsWithinWorkingHours(date CalendarDate, hour, minute int, rules []WorkingHoursRule) bool {
	r, ok := ruleFor(date, rules)
	if !ok || r.StartTime == nil || r.EndTime == nil {
		return false
	}
	m := minuteOfDay(hour, minute)
	start := minuteOfDay(r.StartTime.Hour, r.StartTime.Minute)
	end := minuteOfDay(r.EndTime.Hour, r.EndTime.Minute)
	return m >= start && m < end
}

// slotInstant builds date@hour:minute:00.000 in now's location.
func slotInstant(date CalendarDate, hour, minute int, now time.Time) time.Time {
	return time.Date(date.Year, date.Month, date.Day, hour, minute, 0, 0, now.Location())
}

// IsElapsed reports whether the slot started strictly before now. A slot
// starting exactly at now has not elapsed.
func IsElapsed(date CalendarDate, hour, minute int, now time.Time) bool {
	return slotInstant(date, hour, minute, now).Before(now)
}

// IsCurrent reports whether now falls inside the slot's 15 minutes.
func IsCurrent(date CalendarDate, hour, minute int, now time.Time) bool {
	start := slotInstant(date, hour, minute, now)
	return !now.Before(start) && now.Before(start.Add(SlotMinutes*time.Minute))
}

func ClassifySlot(date CalendarDate, hour, minute int, rules []WorkingHoursRule, now time.Time) SlotClassification {
	return SlotClassification{
		WithinWorkingHours: IsWithinWorkingHours(date, hour, minute, rules),
		Elapsed:            IsElapsed(date, hour, minute, now),
		Current:            IsCurrent(date, hour, minute, now),
	}
}

// ClassifyAppointment compares now with the appointment's [start, end).
func ClassifyAppointment(a Appointment, now time.Time) AppointmentTiming {
	switch {
	case now.Before(a.StartTime):
		return TimingUpcoming
	case now.Before(a.EndTime):
		return TimingInProgress
	default:
		return TimingPast
	}
}

// ValidateRules reports weekdays carrying more than one active rule. The
// classifier still uses the first match for such days.
func ValidateRules(rules []WorkingHoursRule) error {
	seen := make(map[time.Weekday]bool, 7)
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if seen[r.Weekday] {
			return fmt.Errorf("%w: %s", ErrAmbiguousWorkingHours, r.Weekday)
		}
		seen[r.Weekday] = true
	}
	return nil
}
