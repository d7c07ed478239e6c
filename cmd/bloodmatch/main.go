package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/adapter/fsm"
	"github.com/kibeterick/blood-management-fullstack/internal/adapter/otel"
	"github.com/kibeterick/blood-management-fullstack/internal/adapter/river"
	"github.com/kibeterick/blood-management-fullstack/internal/adapter/sqlite"
	"github.com/kibeterick/blood-management-fullstack/internal/app"
	"github.com/kibeterick/blood-management-fullstack/internal/config"
	"github.com/kibeterick/blood-management-fullstack/internal/logger"

	handler "github.com/kibeterick/blood-management-fullstack/internal/adapter/http"
)

const (
	serviceName    = "bloodmatch"
	serviceVersion = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Telemetry.Environment,
		Exporter:       cfg.Telemetry.Exporter,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Attributes: []attribute.KeyValue{
			attribute.Int("bloodmatch.cooldown_days", cfg.Matching.CooldownDays),
			attribute.Int("bloodmatch.max_candidates", cfg.Matching.MaxCandidates),
		},
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(ctx, cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	channel, closeChannels, err := buildChannels(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("notification channels: %w", err)
	}
	defer closeChannels()

	donors, requests, responses := store.Donors(), store.Requests(), store.Responses()
	matches := otel.NewTracingMatchRepository(store.Matches())

	// --- Application ---
	opts := []app.Option{
		app.WithLogger(log),
		app.WithRanker(cfg.Matching.Ranker()),
		app.WithNotifyConcurrency(cfg.Matching.NotifyConcurrency),
	}
	matchValidator, requestValidator := fsm.NewMatchValidator(), fsm.NewRequestValidator()
	matching := app.NewMatchingService(donors, requests, matches, channel, matchValidator, opts...)

	riverClient, err := river.Setup(ctx, store.DB(), river.Config{
		Processor:      matching,
		Requests:       requests,
		Logger:         log,
		RescanInterval: cfg.Matching.RescanInterval,
		MaxWorkers:     cfg.Matching.Workers,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	svc := handler.Services{
		Donors:    app.NewDonorService(donors, opts...),
		Requests:  app.NewRequestService(requests, river.NewScheduler(riverClient), requestValidator, opts...),
		Matching:  matching,
		Responses: app.NewResponseService(requests, matches, responses, matchValidator, requestValidator, opts...),
	}

	// River stops through Stop below, not through signal cancellation.
	if err := riverClient.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(requestLogger(log))

	api := humachi.New(router, huma.DefaultConfig(serviceName, serviceVersion))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("docs", "http://localhost:"+cfg.Server.Port+"/docs"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		log.Warn("river shutdown", zap.Error(err))
	}

	log.Info("stopped")
	return runErr
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
