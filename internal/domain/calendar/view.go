package calendar

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// PackedView is the cacheable part of a view: the filtered appointments of
// the view range and their per-day column layout. It does not depend on
// "now", so it stays valid until the underlying appointments change.
type PackedView struct {
	Mode         ViewMode      `json:"mode"`
	From         CalendarDate  `json:"from"`
	To           CalendarDate  `json:"to"`
	Appointments []Appointment `json:"appointments"`
	Days         []DayLayout   `json:"days"`
}

// PlacedAppointment is an appointment with its column and timing.
type PlacedAppointment struct {
	Appointment
	Column       int               `json:"column"`
	TotalColumns int               `json:"total_columns"`
	Timing       AppointmentTiming `json:"timing"`
}

// SlotCell is one classified row of a day column.
type SlotCell struct {
	TimeSlot
	SlotClassification
	State          SlotState `json:"state"`
	AppointmentIDs []int64   `json:"appointment_ids,omitempty"`
}

// DayView is one rendered date of a view. InRange is false for the padding
// days a month matrix adds before the 1st and after the last day.
type DayView struct {
	Date             CalendarDate        `json:"date"`
	InRange          bool                `json:"in_range"`
	Today            bool                `json:"today"`
	AppointmentCount int                 `json:"appointment_count"`
	TotalColumns     int                 `json:"total_columns"`
	Appointments     []PlacedAppointment `json:"appointments"`
	Slots            []SlotCell          `json:"slots,omitempty"`
}

// View is the complete data-only description of a day, week or month.
type View struct {
	Mode ViewMode     `json:"mode"`
	Date CalendarDate `json:"date"`
	From CalendarDate `json:"from"`
	To   CalendarDate `json:"to"`
	Now  time.Time    `json:"now"`
	Days []DayView    `json:"days"`
}

// Filter narrows a view to one provider and/or resource.
type Filter struct {
	ProviderID *int64 `json:"provider_id,omitempty"`
	ResourceID *int64 `json:"resource_id,omitempty"`
}

// ComputeRequest carries everything needed to build a view without
// repositories.
type ComputeRequest struct {
	Mode         ViewMode           `json:"mode"`
	Date         CalendarDate       `json:"date"`
	Now          time.Time          `json:"now"`
	Filter       Filter             `json:"filter"`
	Appointments []Appointment      `json:"appointments"`
	Rules        []WorkingHoursRule `json:"rules"`
}

// Normalize fills the defaults of a ComputeRequest: DefaultViewMode and now
// in loc. It fails when the mode is unknown or the date is missing.
func (r *ComputeRequest) Normalize(loc *time.Location) error {
	if r.Mode == "" {
		r.Mode = DefaultViewMode
	}
	mode, err := ParseViewMode(string(r.Mode))
	if err != nil {
		return err
	}
	r.Mode = mode
	if !r.Date.IsValid() {
		return fmt.Errorf("date is required")
	}
	if r.Now.IsZero() {
		r.Now = time.Now().In(loc)
	}
	return nil
}

// PackView filters appointments down to the view and lays out each day.
func PackView(all []Appointment, mode ViewMode, ref CalendarDate, f Filter) (*PackedView, error) {
	from, to := RangeFor(mode, ref)
	appts := ByProviderAndResource(ForView(all, mode, ref), f.ProviderID, f.ResourceID)
	days, err := PackByDate(appts)
	if err != nil {
		return nil, err
	}
	return &PackedView{Mode: mode, From: from, To: to, Appointments: appts, Days: days}, nil
}

// Compute builds a full view from caller-supplied appointments and rules.
func Compute(req ComputeRequest) (*View, error) {
	packed, err := PackView(req.Appointments, req.Mode, req.Date, req.Filter)
	if err != nil {
		return nil, err
	}
	return Assemble(packed, req.Date, req.Rules, req.Now), nil
}

// Assemble zips a packed view with the time grid and classifies every cell
// against now. Day and week views get 96 slot cells per date; month views get
// one cell per matrix date and no slots.
func Assemble(packed *PackedView, ref CalendarDate, rules []WorkingHoursRule, now time.Time) *View {
	today := civil.DateOf(now)

	var dates []CalendarDate
	switch packed.Mode {
	case ViewMonth:
		dates = MonthMatrix(ref)
	case ViewWeek:
		w := WeekOf(ref)
		dates = w[:]
	default:
		dates = []CalendarDate{ref}
	}

	layouts := make(map[CalendarDate]DayLayout, len(packed.Days))
	for _, d := range packed.Days {
		layouts[d.Date] = d
	}

	var slots []TimeSlot
	if packed.Mode != ViewMonth {
		slots = DaySlots()
	}

	v := &View{
		Mode: packed.Mode,
		Date: ref,
		From: packed.From,
		To:   packed.To,
		Now:  now,
		Days: make([]DayView, 0, len(dates)),
	}
	for _, d := range dates {
		dayAppts := ForDate(packed.Appointments, d)
		layout := layouts[d]

		dv := DayView{
			Date:             d,
			InRange:          inRange(d, packed.From, packed.To),
			Today:            d == today,
			AppointmentCount: len(dayAppts),
			TotalColumns:     layout.TotalColumns,
			Appointments:     placeAppointments(dayAppts, layout, now),
		}
		if slots != nil {
			dv.Slots = classifyDay(d, slots, dayAppts, rules, now)
		}
		v.Days = append(v.Days, dv)
	}
	return v
}

// placeAppointments pairs appts with layout.Assignments by position. Both
// hold the day's appointments in the order of PackedView.Appointments, so
// duplicate or missing ids cannot merge two bookings into one column.
func placeAppointments(appts []Appointment, layout DayLayout, now time.Time) []PlacedAppointment {
	placed := make([]PlacedAppointment, 0, len(appts))
	for i, a := range appts {
		var la LayoutAssignment
		if i < len(layout.Assignments) {
			la = layout.Assignments[i]
		}
		placed = append(placed, PlacedAppointment{
			Appointment:  a,
			Column:       la.Column,
			TotalColumns: la.TotalColumns,
			Timing:       ClassifyAppointment(a, now),
		})
	}
	return placed
}

func classifyDay(d CalendarDate, slots []TimeSlot, appts []Appointment, rules []WorkingHoursRule, now time.Time) []SlotCell {
	cells := make([]SlotCell, len(slots))
	for i, s := range slots {
		c := ClassifySlot(d, s.Hour, s.Minute, rules, now)
		cell := SlotCell{TimeSlot: s, SlotClassification: c, State: c.State()}
		for _, a := range ForSlot(appts, d, s.Hour, s.Minute) {
			cell.AppointmentIDs = append(cell.AppointmentIDs, a.ID)
		}
		cells[i] = cell
	}
	return cells
}
