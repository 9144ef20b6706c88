package calendar

import (
	"fmt"
	"sync"
)

var (
	daySlotsOnce sync.Once
	daySlots     []TimeSlot
)

// DaySlots returns the 96 fifteen-minute slots of a day in ascending order.
// The table is built once per process; each call gets its own copy.
func DaySlots() []TimeSlot {
	daySlotsOnce.Do(func() {
		daySlots = make([]TimeSlot, 0, SlotsPerDay)
		for h := 0; h < 24; h++ {
			for m := 0; m < 60; m += SlotMinutes {
				daySlots = append(daySlots, TimeSlot{
					Hour:   h,
					Minute: m,
					Label:  fmt.Sprintf("%02d:%02d", h, m),
				})
			}
		}
	})

	out := make([]TimeSlot, len(daySlots))
	copy(out, daySlots)
	return out
}

// MonthWeeks splits MonthMatrix into Monday-first week rows.
func MonthWeeks(date CalendarDate) [][7]CalendarDate {
	days := MonthMatrix(date)
	weeks := make([][7]CalendarDate, 0, len(days)/7)
	for i := 0; i+7 <= len(days); i += 7 {
		var w [7]CalendarDate
		copy(w[:], days[i:i+7])
		weeks = append(weeks, w)
	}
	return weeks
}
