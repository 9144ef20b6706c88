package calendar

import "time"

// The filters below never reorder or mutate their input; a nil result means
// nothing matched.

// ForView keeps the appointments the given view shows: the exact date for
// day, the Monday-first week of ref for week, and ref's calendar month for
// month.
func ForView(all []Appointment, mode ViewMode, ref CalendarDate) []Appointment {
	first, last := RangeFor(mode, ref)
	var out []Appointment
	for _, a := range all {
		if inRange(a.Date, first, last) {
			out = append(out, a)
		}
	}
	return out
}

// ByProviderAndResource applies optional equality filters; a nil id disables
// that filter.
func ByProviderAndResource(list []Appointment, providerID, resourceID *int64) []Appointment {
	if providerID == nil && resourceID == nil {
		return list
	}
	var out []Appointment
	for _, a := range list {
		if providerID != nil && a.ProviderID != *providerID {
			continue
		}
		if resourceID != nil && a.ResourceID != *resourceID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ForSlot returns the appointments on date whose [start, end) contains
// date@hour:minute. The instant is built in each appointment's own location.
func ForSlot(list []Appointment, date CalendarDate, hour, minute int) []Appointment {
	var out []Appointment
	for _, a := range list {
		if a.Date != date {
			continue
		}
		at := time.Date(date.Year, date.Month, date.Day, hour, minute, 0, 0, a.StartTime.Location())
		if !at.Before(a.StartTime) && at.Before(a.EndTime) {
			out = append(out, a)
		}
	}
	return out
}

func ForDate(list []Appointment, date CalendarDate) []Appointment {
	var out []Appointment
	for _, a := range list {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}
