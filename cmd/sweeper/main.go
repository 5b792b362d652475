// The sweeper is the background process that marks expired verification
// tokens as used. It shares the token-store configuration with the
// server and runs on its own cron-style schedule.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rentloop/auth-service/config"
	"github.com/rentloop/auth-service/internal/health"
	"github.com/rentloop/auth-service/internal/infrastructure/cms"
	"github.com/rentloop/auth-service/internal/infrastructure/postgres"
	ctxlog "github.com/rentloop/auth-service/internal/log"
	"github.com/rentloop/auth-service/internal/maintenance"
	"github.com/rentloop/auth-service/internal/metrics"
	"github.com/rentloop/auth-service/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer)

	var tokenStore repository.VerificationTokenStore
	switch cfg.TokenStoreDriver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		checker.Register("postgres", pool)
		tokenStore = postgres.NewTokenStore(pool)
	default:
		client := cms.NewClient(cfg.CMSBaseURL, cfg.CMSToken, logger)
		checker.Register("records", client)
		tokenStore = cms.NewTokenStore(client)
	}

	sweeper, err := maintenance.NewSweeper(tokenStore, cfg.SweepSchedule, logger)
	if err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	go sweeper.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("sweeper shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
