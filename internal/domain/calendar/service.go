package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("calendar")

type Service struct {
	appointments AppointmentRepository
	workingHours WorkingHoursRepository
	cache        ViewCache
	logger       zerolog.Logger
	loc          *time.Location

	// fillMu and gen keep a view loaded before an invalidation from being
	// written back after it: fills hold the read lock from the generation
	// check through Set, invalidations bump gen under the write lock.
	fillMu sync.RWMutex
	gen    uint64
}

// NewService wires the calendar to its loaders. A nil cache disables caching;
// a nil loc means UTC.
func NewService(appts AppointmentRepository, wh WorkingHoursRepository, cache ViewCache, logger zerolog.Logger, loc *time.Location) *Service {
	if cache == nil {
		cache = NoopViewCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		appointments: appts,
		workingHours: wh,
		cache:        cache,
		logger:       logger.With().Str("component", "calendar").Logger(),
		loc:          loc,
	}
}

// Location is the calendar's local zone.
func (s *Service) Location() *time.Location { return s.loc }

// ViewRequest asks for one rendered view. A zero Now means the current time
// in the calendar's location.
type ViewRequest struct {
	Mode   ViewMode
	Date   CalendarDate
	Filter Filter
	Now    time.Time
}

// BuildView loads and packs the view range, going through the cache, then
// classifies the grid against req.Now.
func (s *Service) BuildView(ctx context.Context, req ViewRequest) (*View, error) {
	if !req.Date.IsValid() {
		return nil, fmt.Errorf("invalid date %s", req.Date)
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now().In(s.loc)
	}
	key := NewViewKey(req.Mode, req.Date, req.Filter)

	ctx, span := tracer.Start(ctx, "calendar.BuildView", trace.WithAttributes(
		attribute.String("calendar.mode", string(req.Mode)),
		attribute.String("calendar.anchor", key.Anchor.String()),
	))
	defer span.End()

	packed, err := s.packed(ctx, key, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rules, err := s.workingHours.ListRules(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load working hours")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if err := ValidateRules(rules); err != nil {
		s.logger.Warn().Err(err).Msg("working hours are ambiguous, using first active rule")
	}

	return Assemble(packed, req.Date, rules, now), nil
}

func (s *Service) packed(ctx context.Context, key ViewKey, req ViewRequest) (*PackedView, error) {
	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		// A broken cache degrades to a recompute.
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("view cache get failed")
	} else if ok {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("calendar.cache_hit", true))
		return v, nil
	}
	s.logger.Debug().Str("key", key.String()).Msg("view cache miss")

	s.fillMu.RLock()
	gen := s.gen
	s.fillMu.RUnlock()

	from, to := RangeFor(req.Mode, req.Date)
	appts, err := s.appointments.ListBetween(ctx, from, to)
	if err != nil {
		s.logger.Error().Err(err).Str("from", from.String()).Str("to", to.String()).Msg("load appointments")
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	packed, err := PackView(appts, req.Mode, req.Date, req.Filter)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.logger.Error().Int64("appointment_id", ve.AppointmentID).Str("reason", ve.Reason).Msg("invalid appointment interval")
		}
		return nil, err
	}

	s.fillMu.RLock()
	defer s.fillMu.RUnlock()
	if s.gen != gen {
		s.logger.Debug().Str("key", key.String()).Msg("views invalidated during load, not caching")
		return packed, nil
	}
	if err := s.cache.Set(ctx, key, packed); err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("view cache set failed")
	}
	return packed, nil
}

// NavigateResult is the date a navigation step lands on and the range the
// view shows for it.
type NavigateResult struct {
	Mode ViewMode     `json:"mode"`
	Date CalendarDate `json:"date"`
	From CalendarDate `json:"from"`
	To   CalendarDate `json:"to"`
}

func (s *Service) Navigate(mode ViewMode, date CalendarDate, dir Direction, now time.Time) NavigateResult {
	if now.IsZero() {
		now = time.Now().In(s.loc)
	}
	next := Advance(date, mode, dir, civilDateIn(now, s.loc))
	from, to := RangeFor(mode, next)
	return NavigateResult{Mode: mode, Date: next, From: from, To: to}
}

// InvalidateDates drops cached views covering any of dates.
func (s *Service) InvalidateDates(ctx context.Context, dates ...CalendarDate) error {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen++
	if err := s.cache.InvalidateDates(ctx, dates...); err != nil {
		return fmt.Errorf("invalidate views: %w", err)
	}
	s.logger.Debug().Int("dates", len(dates)).Msg("views invalidated")
	return nil
}

func (s *Service) InvalidateAll(ctx context.Context) error {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen++
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate all views: %w", err)
	}
	s.logger.Info().Msg("view cache cleared")
	return nil
}
