// Package events consumes appointment change notifications from the booking
// layer and drops the cached calendar views they affect.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ehr/calendar/internal/domain/calendar"
)

// AppointmentChanged is published whenever a booking is created, moved,
// cancelled or deleted. PreviousDate is set when the booking moved days.
type AppointmentChanged struct {
	AppointmentID int64                  `json:"appointment_id"`
	Date          calendar.CalendarDate  `json:"date"`
	PreviousDate  *calendar.CalendarDate `json:"previous_date,omitempty"`
	Type          string                 `json:"type"`
}

// Dates returns the calendar dates whose views the change touches.
func (e AppointmentChanged) Dates() []calendar.CalendarDate {
	dates := []calendar.CalendarDate{e.Date}
	if e.PreviousDate != nil && *e.PreviousDate != e.Date {
		dates = append(dates, *e.PreviousDate)
	}
	return dates
}

func Decode(value []byte) (AppointmentChanged, error) {
	var evt AppointmentChanged
	if err := json.Unmarshal(value, &evt); err != nil {
		return evt, fmt.Errorf("decode appointment event: %w", err)
	}
	if !evt.Date.IsValid() {
		return evt, fmt.Errorf("appointment event %d: missing or invalid date", evt.AppointmentID)
	}
	if evt.PreviousDate != nil && !evt.PreviousDate.IsValid() {
		return evt, fmt.Errorf("appointment event %d: invalid previous_date", evt.AppointmentID)
	}
	return evt, nil
}

// Invalidator is satisfied by *calendar.Service.
type Invalidator interface {
	InvalidateDates(ctx context.Context, dates ...calendar.CalendarDate) error
}

// MessageReader is the part of *kafka.Reader the consumer uses. With a
// GroupID set, ReadMessage commits offsets itself.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewReader builds a consumer-group reader for the change topic.
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
}

type Consumer struct {
	reader  MessageReader
	target  Invalidator
	logger  zerolog.Logger
	backoff time.Duration
}

func NewConsumer(reader MessageReader, target Invalidator, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		target:  target,
		logger:  logger.With().Str("component", "events").Logger(),
		backoff: time.Second,
	}
}

// Handle applies one message. Malformed messages are logged and skipped so a
// bad payload cannot block the partition; invalidation failures are returned.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	evt, err := Decode(msg.Value)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("topic", msg.Topic).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("skipping malformed appointment event")
		return nil
	}

	dates := evt.Dates()
	if err := c.target.InvalidateDates(ctx, dates...); err != nil {
		return fmt.Errorf("invalidate for appointment %d: %w", evt.AppointmentID, err)
	}

	strs := make([]string, len(dates))
	for i, d := range dates {
		strs[i] = d.String()
	}
	c.logger.Debug().
		Int64("appointment_id", evt.AppointmentID).
		Str("type", evt.Type).
		Str("dates", strings.Join(strs, ",")).
		Msg("views invalidated")
	return nil
}

// Run reads and handles messages until ctx is cancelled or the reader is
// closed. Handler failures are logged and the message is dropped; the next
// change to the same date invalidates again and entries expire with CACHE_TTL.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error().Err(err).Msg("kafka read failed")
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		msgCtx := otel.GetTextMapPropagator().Extract(ctx, headerCarrier(msg.Headers))
		spanCtx, span := otel.Tracer("kafka").Start(msgCtx, "kafka.consume",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
				attribute.Int64("messaging.kafka.offset", msg.Offset),
			),
		)
		if err := c.Handle(spanCtx, msg); err != nil {
			c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("handle appointment event")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
