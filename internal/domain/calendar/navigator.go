package calendar

import (
	"time"

	"cloud.google.com/go/civil"
)

func weekday(d CalendarDate) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func addMonths(d CalendarDate, n int) CalendarDate {
	// time.AddDate normalizes overflow, so Jan 31 + 1 month lands on Mar 2/3.
	return civil.DateOf(d.In(time.UTC).AddDate(0, n, 0))
}

func firstOfMonth(d CalendarDate) CalendarDate {
	return CalendarDate{Year: d.Year, Month: d.Month, Day: 1}
}

func lastOfMonth(d CalendarDate) CalendarDate {
	return addMonths(firstOfMonth(d), 1).AddDays(-1)
}

// Advance moves date one step in the given view mode. DirectionToday ignores
// date and returns today.
func Advance(date CalendarDate, mode ViewMode, dir Direction, today CalendarDate) CalendarDate {
	step := 1
	switch dir {
	case DirectionToday:
		return today
	case DirectionPrev:
		step = -1
	}

	switch mode {
	case ViewWeek:
		return date.AddDays(7 * step)
	case ViewMonth:
		return addMonths(date, step)
	default:
		return date.AddDays(step)
	}
}

// WeekOf returns Monday..Sunday of the week containing date. Sunday belongs to
// the week that started the previous Monday.
func WeekOf(date CalendarDate) [7]CalendarDate {
	offset := (int(weekday(date)) + 6) % 7
	monday := date.AddDays(-offset)

	var week [7]CalendarDate
	for i := range week {
		week[i] = monday.AddDays(i)
	}
	return week
}

// MonthMatrix returns every date from the Monday on or before the 1st of the
// month through the Sunday on or after its last day.
func MonthMatrix(date CalendarDate) []CalendarDate {
	start := WeekOf(firstOfMonth(date))[0]
	end := WeekOf(lastOfMonth(date))[6]

	days := make([]CalendarDate, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// RangeFor returns the inclusive date span whose appointments a view shows.
// A month view covers the calendar month only, not the padding days of
// MonthMatrix.
func RangeFor(mode ViewMode, ref CalendarDate) (first, last CalendarDate) {
	switch mode {
	case ViewWeek:
		w := WeekOf(ref)
		return w[0], w[6]
	case ViewMonth:
		return firstOfMonth(ref), lastOfMonth(ref)
	default:
		return ref, ref
	}
}

// Anchor is the first date of the view range containing ref. Every reference
// date inside the same week or month shares one anchor.
func Anchor(mode ViewMode, ref CalendarDate) CalendarDate {
	first, _ := RangeFor(mode, ref)
	return first
}

func inRange(d, first, last CalendarDate) bool {
	return !d.Before(first) && !d.After(last)
}

func civilDateIn(t time.Time, loc *time.Location) CalendarDate {
	return civil.DateOf(t.In(loc))
}
