package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/ehr/calendar/internal/config"
	"github.com/ehr/calendar/internal/domain/calendar"
	"github.com/ehr/calendar/internal/platform/auth"
	"github.com/ehr/calendar/internal/platform/cache"
	"github.com/ehr/calendar/internal/platform/db"
	"github.com/ehr/calendar/internal/platform/events"
	"github.com/ehr/calendar/internal/platform/middleware"
	"github.com/ehr/calendar/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "calendar-server",
		Short:        "Appointment calendar layout and availability API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(layoutCmd())
	root.AddCommand(gridCmd())
	root.AddCommand(migrateCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the calendar API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// newViewCache picks the view cache for CACHE_BACKEND. The returned close
// func releases any connection it opened.
func newViewCache(ctx context.Context, cfg *config.Config) (calendar.ViewCache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.CacheBackend {
	case "redis":
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisViewCache(rdb, "", cfg.CacheTTL), rdb.Close, nil
	case "none":
		return calendar.NoopViewCache{}, noop, nil
	default:
		return calendar.NewMemoryViewCache(cfg.CacheTTL), noop, nil
	}
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    "calendar-server",
		ServiceVersion: version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSampling,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	// Database
	pool, err := db.NewPool(ctx, db.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		TimeZone: loc.String(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// View cache
	viewCache, closeCache, err := newViewCache(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("failed to set up view cache")
	}
	defer closeCache()
	logger.Info().Str("backend", cfg.CacheBackend).Dur("ttl", cfg.CacheTTL).Msg("view cache ready")

	svc := calendar.NewService(
		calendar.NewAppointmentRepoPG(pool, loc),
		calendar.NewWorkingHoursRepoPG(pool),
		viewCache,
		logger,
		loc,
	)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(telemetry.TracingMiddleware(otel.GetTracerProvider()))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "traceparent"},
	}))

	apiV1 := e.Group("/api/v1")

	// Auth middleware
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	apiV1.Use(middleware.RequestTimeout(30 * time.Second))

	calendar.NewHandler(svc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Appointment change events
	consumerDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		reader := events.NewReader(events.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		})
		consumer := events.NewConsumer(reader, svc, logger)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("event consumer stopped")
			}
		}()
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("event consumer started")
	} else {
		close(consumerDone)
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	<-consumerDone
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracer shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
