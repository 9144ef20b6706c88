package calendar

import (
	"sort"
	"time"
)

// Overlaps is the half-open interval test used by the packer and filters.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Pack assigns each appointment of one day a column so that overlapping
// appointments never share a column. Appointments are swept in start order
// (ties keep input order) and take the lowest column that is free at their
// start; a new column opens only when none is. TotalColumns is the final
// column count and is the same on every assignment.
//
// Assignments are returned in input order. Any appointment whose end is not
// after its start fails the whole day with a *ValidationError.
func Pack(appts []Appointment) ([]LayoutAssignment, error) {
	for _, a := range appts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	order := make([]int, len(appts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return appts[order[i]].StartTime.Before(appts[order[j]].StartTime)
	})

	// columnEnds[c] is the latest end time placed in column c.
	var columnEnds []time.Time
	assignments := make([]LayoutAssignment, len(appts))
	for _, idx := range order {
		a := appts[idx]
		col := -1
		for c, end := range columnEnds {
			if !end.After(a.StartTime) {
				col = c
				break
			}
		}
		if col < 0 {
			columnEnds = append(columnEnds, a.EndTime)
			col = len(columnEnds) - 1
		} else if a.EndTime.After(columnEnds[col]) {
			columnEnds[col] = a.EndTime
		}
		assignments[idx] = LayoutAssignment{AppointmentID: a.ID, Column: col}
	}

	for i := range assignments {
		assignments[i].TotalColumns = len(columnEnds)
	}
	return assignments, nil
}

// PackByDate groups appointments by Date and packs each day on its own.
// Days come back in ascending date order.
func PackByDate(appts []Appointment) ([]DayLayout, error) {
	byDate := make(map[CalendarDate][]Appointment)
	var dates []CalendarDate
	for _, a := range appts {
		if _, ok := byDate[a.Date]; !ok {
			dates = append(dates, a.Date)
		}
		byDate[a.Date] = append(byDate[a.Date], a)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	layouts := make([]DayLayout, 0, len(dates))
	for _, d := range dates {
		assignments, err := Pack(byDate[d])
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, DayLayout{
			Date:         d,
			TotalColumns: assignments[0].TotalColumns,
			Assignments:  assignments,
		})
	}
	return layouts, nil
}
