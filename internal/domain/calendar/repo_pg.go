package calendar

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the read side shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct {
	q   Querier
	loc *time.Location
}

// NewAppointmentRepoPG reads the booking layer's appointment table. Start and
// end instants are converted to loc, the calendar's single local zone.
func NewAppointmentRepoPG(q Querier, loc *time.Location) AppointmentRepository {
	return &appointmentRepoPG{q: q, loc: loc}
}

const apptCols = `id, appointment_date, start_time, end_time, duration_minutes,
	provider_id, resource_id, status`

// Cancelled and entered-in-error bookings never occupy a column.
const apptVisible = `status NOT IN ('cancelled', 'entered-in-error')`

func (r *appointmentRepoPG) ListBetween(ctx context.Context, from, to CalendarDate) ([]Appointment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE appointment_date BETWEEN $1 AND $2 AND `+apptVisible+`
		ORDER BY appointment_date, start_time, id`,
		from.In(time.UTC), to.In(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("query appointments %s..%s: %w", from, to, err)
	}
	defer rows.Close()

	var items []Appointment
	for rows.Next() {
		var (
			a    Appointment
			date time.Time
		)
		if err := rows.Scan(&a.ID, &date, &a.StartTime, &a.EndTime, &a.DurationMinutes,
			&a.ProviderID, &a.ResourceID, &a.Status); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		a.Date = civil.DateOf(date)
		a.StartTime = a.StartTime.In(r.loc)
		a.EndTime = a.EndTime.In(r.loc)
		items = append(items, a)
	}
	return items, rows.Err()
}

// =========== Working Hours Repository ===========

type workingHoursRepoPG struct{ q Querier }

func NewWorkingHoursRepoPG(q Querier) WorkingHoursRepository {
	return &workingHoursRepoPG{q: q}
}

func civilTime(t pgtype.Time) *civil.Time {
	if !t.Valid {
		return nil
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	ct := civil.Time{
		Hour:   int(d / time.Hour),
		Minute: int(d % time.Hour / time.Minute),
		Second: int(d % time.Minute / time.Second),
	}
	return &ct
}

// ListRules returns rules ordered by weekday then id, so the first active
// match per weekday is stable across calls.
func (r *workingHoursRepoPG) ListRules(ctx context.Context) ([]WorkingHoursRule, error) {
	rows, err := r.q.Query(ctx, `SELECT weekday, start_time, end_time, active
		FROM working_hours ORDER BY weekday, id`)
	if err != nil {
		return nil, fmt.Errorf("query working hours: %w", err)
	}
	defer rows.Close()

	var rules []WorkingHoursRule
	for rows.Next() {
		var (
			wd         int16
			start, end pgtype.Time
			rule       WorkingHoursRule
		)
		if err := rows.Scan(&wd, &start, &end, &rule.Active); err != nil {
			return nil, fmt.Errorf("scan working hours: %w", err)
		}
		rule.Weekday = time.Weekday(wd)
		rule.StartTime = civilTime(start)
		rule.EndTime = civilTime(end)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
