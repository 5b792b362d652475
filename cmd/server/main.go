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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/rentloop/auth-service/config"
	"github.com/rentloop/auth-service/internal/email"
	"github.com/rentloop/auth-service/internal/health"
	httptransport "github.com/rentloop/auth-service/internal/http"
	"github.com/rentloop/auth-service/internal/http/handler"
	"github.com/rentloop/auth-service/internal/http/middleware"
	"github.com/rentloop/auth-service/internal/infrastructure/cms"
	"github.com/rentloop/auth-service/internal/infrastructure/postgres"
	ctxlog "github.com/rentloop/auth-service/internal/log"
	"github.com/rentloop/auth-service/internal/metrics"
	"github.com/rentloop/auth-service/internal/profile"
	"github.com/rentloop/auth-service/internal/ratelimit"
	"github.com/rentloop/auth-service/internal/repository"
	"github.com/rentloop/auth-service/internal/session"
	"github.com/rentloop/auth-service/internal/storage"
	"github.com/rentloop/auth-service/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer)

	// Record store holding users, roles and (by default) tokens.
	client := cms.NewClient(cfg.CMSBaseURL, cfg.CMSToken, logger)
	checker.Register("records", client)
	userStore := cms.NewUserStore(client)
	roleDir := cms.NewRoleDirectory(client)

	var tokenStore repository.VerificationTokenStore
	switch cfg.TokenStoreDriver {
	case "postgres":
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		checker.Register("postgres", pool)
		tokenStore = postgres.NewTokenStore(pool)
	default:
		tokenStore = cms.NewTokenStore(client)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	checker.Register("redis", health.PingerFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}))

	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(rdb, ratelimit.Config{
			Capacity:       cfg.RateLimitCapacity,
			RefillTokens:   cfg.RateLimitRefill,
			RefillInterval: time.Duration(cfg.RateLimitWindow) * time.Second,
			TTL:            time.Hour,
		})
	}

	docStore, err := storage.NewDocumentStore(ctx, storage.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Bucket:    cfg.MinioBucket,
	}, logger)
	if err != nil {
		log.Fatalf("document store: %v", err)
	}

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	verification := usecase.NewVerificationUsecase(userStore, tokenStore, sender, logger, usecase.VerificationConfig{
		TokenTTL:   cfg.VerificationTTL(),
		AppBaseURL: cfg.AppBaseURL,
		Env:        cfg.Env,
	})
	sessions := usecase.NewSessionUsecase(userStore, logger)
	resolver := profile.NewResolver(roleDir, logger)
	profiles := usecase.NewProfileUsecase(userStore, resolver, docStore, logger)

	cookies := session.CookiePolicy{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		TTL:    cfg.CookieTTL(),
	}
	authHandler := handler.NewAuthHandler(verification, sessions, cookies, logger)
	profileHandler := handler.NewProfileHandler(profiles, logger)

	router := httptransport.NewRouter(
		logger,
		httptransport.RouterConfig{AllowedOrigins: cfg.AllowedOrigins()},
		authHandler,
		profileHandler,
		middleware.Auth(sessions),
		limiter,
	)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
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
