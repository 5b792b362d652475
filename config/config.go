package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Record store (headless CMS) holding users, roles and tokens.
	CMSBaseURL string `env:"CMS_BASE_URL,required" validate:"required,url"`
	CMSToken   string `env:"CMS_TOKEN,required" validate:"required"`

	// TokenStoreDriver selects where verification tokens live: the CMS
	// collection or a dedicated Postgres table.
	TokenStoreDriver string `env:"TOKEN_STORE_DRIVER" envDefault:"cms" validate:"oneof=cms postgres"`
	DatabaseURL      string `env:"DATABASE_URL" validate:"required_if=TokenStoreDriver postgres"`

	VerificationTTLMinutes int    `env:"VERIFICATION_TTL_MINUTES" envDefault:"1440" validate:"min=1"`
	AppBaseURL             string `env:"APP_BASE_URL" envDefault:"http://localhost:8080" validate:"url"`
	SweepSchedule          string `env:"SWEEP_SCHEDULE" envDefault:"*/15 * * * *"`

	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieDays   int    `env:"COOKIE_DAYS" envDefault:"30" validate:"min=1"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM" validate:"required_if=Env production,required_if=Env staging"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	RateLimitEnabled  bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitCapacity int  `env:"RATE_LIMIT_CAPACITY" envDefault:"10" validate:"min=1"`
	RateLimitRefill   int  `env:"RATE_LIMIT_REFILL" envDefault:"5" validate:"min=1"`
	RateLimitWindow   int  `env:"RATE_LIMIT_WINDOW_SEC" envDefault:"60" validate:"min=1"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"profile-documents"`

	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// VerificationTTL returns the token lifetime as a duration.
func (c *Config) VerificationTTL() time.Duration {
	return time.Duration(c.VerificationTTLMinutes) * time.Minute
}

// CookieTTL returns the session cookie lifetime.
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.CookieDays) * 24 * time.Hour
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SlogLevel maps LogLevel onto the slog scale.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
