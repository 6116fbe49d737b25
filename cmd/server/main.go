// Command server runs the affiliate click tracking API.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration
//  2. Configure zerolog (level, optional pretty console output)
//  3. Open SQLite and migrate the schema
//  4. Configure OpenTelemetry tracing (optional)
//  5. Build the Gin engine and register routes
//  6. Start the retry queue worker and the HTTP server
//
// Shutdown is graceful: SIGINT/SIGTERM stops the worker, drains the HTTP
// server, and flushes traces before exit.
//
// @title       Affiliate Tracking API
// @version     1.0
// @description Click tracking, retry queue management, and analytics for affiliate links.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-affiliate-backend/docs"
	"github.com/tbourn/go-affiliate-backend/internal/config"
	httpapi "github.com/tbourn/go-affiliate-backend/internal/http"
	"github.com/tbourn/go-affiliate-backend/internal/jobs"
	"github.com/tbourn/go-affiliate-backend/internal/observability"
	"github.com/tbourn/go-affiliate-backend/internal/repo"
	"github.com/tbourn/go-affiliate-backend/internal/services"
	"github.com/tbourn/go-affiliate-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments configure via the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting")

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	clock := clockwork.NewRealClock()
	httpapi.RegisterRoutes(r, db, clock, cfg)

	// Background retry processor on a real interval.
	retrySvc := services.NewRetryService(db, clock,
		cfg.Retry.BatchSize, cfg.Retry.BaseBackoff,
		cfg.Retry.QueueRetention, cfg.Retry.DeadItemRetention, cfg.Retry.OpTimeout)
	worker := jobs.New("retry-queue", cfg.Retry.Interval, func(ctx context.Context) error {
		_, err := retrySvc.ProcessRetryQueue(ctx)
		return err
	})
	go worker.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("bye")
}
