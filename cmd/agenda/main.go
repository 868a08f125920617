package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/compabray/agenda-frontend/internal/agendaapi"
	"github.com/compabray/agenda-frontend/internal/booking"
	"github.com/compabray/agenda-frontend/internal/config"
	"github.com/compabray/agenda-frontend/internal/events"
	"github.com/compabray/agenda-frontend/internal/metrics"
	"github.com/compabray/agenda-frontend/internal/session"
	"github.com/compabray/agenda-frontend/internal/web"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("AGENDA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.API.BaseURL == "" {
		logger.Fatal().Msg("set api.base_url in config")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("set auth.jwt_secret in config")
	}
	if cfg.Booking.BusinessID == "" {
		logger.Fatal().Msg("set booking.business_id in config")
	}

	client := agendaapi.NewClient(cfg.API.BaseURL, cfg.APITimeout())

	var rdb *redis.Client
	var adminSessions session.Store
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if cfg.StaffCacheTTL() > 0 {
			client.UseRedisCache(rdb, cfg.StaffCacheTTL())
		}
		adminSessions = session.NewRedisStore(rdb, cfg.AdminSessionTTL())
	} else {
		logger.Warn().Msg("redis not configured, admin sessions are in-memory")
		adminSessions = session.NewMemoryStore(cfg.AdminSessionTTL())
	}

	bus := events.NewBus()
	subscribeAuditLog(bus, logger)
	subscribeMetrics(bus)

	adapter := web.NewAgendaAdapter(client)
	wizard := booking.NewWizard(adapter, adapter, cfg.Booking.BusinessID, bus, logger)
	wizardSessions := booking.NewSessionStore(cfg.WizardSessionTimeout())

	srv, err := web.NewServer(
		web.Config{
			BusinessID:   cfg.Booking.BusinessID,
			JWTSecret:    cfg.Auth.JWTSecret,
			RequiredRole: cfg.Auth.RequiredRole,
			RateRPS:      cfg.RateLimit.RequestsPerSecond,
			RateBurst:    cfg.RateLimit.Burst,
		},
		client, wizard, wizardSessions, adminSessions, bus, logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build web server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionJanitor(ctx, wizardSessions, &logger)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("agenda frontend started")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server error")
	}
	logger.Info().Msg("agenda frontend stopped")
}

// subscribeAuditLog writes one structured line per reservation lifecycle
// event so operators can trace bookings without touching the external CRM.
func subscribeAuditLog(bus *events.Bus, logger zerolog.Logger) {
	log := func(event events.Event) error {
		logger.Info().
			Str("type", event.Type).
			Str("business", event.BusinessID).
			Str("date", event.Date).
			Str("time", event.Time).
			Str("reservation", event.ReservationID).
			Msg("reservation event")
		return nil
	}
	bus.Subscribe(events.TypeReservationCreated, log)
	bus.Subscribe(events.TypeReservationConflict, log)
	bus.Subscribe(events.TypeReservationCancelled, log)
}

// subscribeMetrics keeps the lifecycle counters out of the wizard and
// handler code paths.
func subscribeMetrics(bus *events.Bus) {
	bus.Subscribe(events.TypeReservationCreated, func(events.Event) error {
		metrics.IncReservationCreated()
		return nil
	})
	bus.Subscribe(events.TypeReservationConflict, func(events.Event) error {
		metrics.IncReservationConflict()
		return nil
	})
	bus.Subscribe(events.TypeReservationCancelled, func(events.Event) error {
		metrics.IncReservationCancelled()
		return nil
	})
}

// sessionJanitor evicts expired wizard sessions periodically.
func sessionJanitor(ctx context.Context, store *booking.SessionStore, logger *zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Cleanup(); n > 0 {
				logger.Debug().Int("evicted", n).Msg("expired wizard sessions cleaned up")
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
