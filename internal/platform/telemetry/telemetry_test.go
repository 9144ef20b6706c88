package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	sr := tracetest.NewSpanRecorder()
	tp, err := newProvider(context.Background(), Config{ServiceName: "calendar-test", Environment: "test", SampleRatio: 1},
		sdktrace.WithSpanProcessor(sr))
	if err != nil {
		t.Fatalf("newProvider: %v", err)
	}
	t.Cleanup(func() { tp.Shutdown(context.Background()) })
	return tp, sr
}

func serve(tp *sdktrace.TracerProvider, handler echo.HandlerFunc) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/view", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/calendar/view")
	return TracingMiddleware(tp)(handler)(c)
}

func TestTracingMiddleware_RecordsSpan(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	err := serve(tp, func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "HTTP GET /api/v1/calendar/view" {
		t.Errorf("unexpected span name %q", s.Name())
	}
	if s.Parent().TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected trace to continue incoming context, got %s", s.Parent().TraceID())
	}
	if s.Status().Code == codes.Error {
		t.Error("expected non-error status for 200")
	}
}

func TestTracingMiddleware_ServerError(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	err := serve(tp, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.New("db down").Error())
	})
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	spans := sr.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("expected one failed span, got %+v", spans)
	}
}
