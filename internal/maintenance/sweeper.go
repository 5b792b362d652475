// Package maintenance runs the background housekeeping of the token
// store. Expired verification tokens are never deleted; the sweeper
// marks them used so the unused set stays small and auditable.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rentloop/auth-service/internal/metrics"
	"github.com/rentloop/auth-service/internal/repository"
)

type Sweeper struct {
	tokens   repository.VerificationTokenStore
	schedule cron.Schedule
	logger   *slog.Logger
}

// NewSweeper parses a standard five-field cron expression for the sweep
// cadence.
func NewSweeper(tokens repository.VerificationTokenStore, cronExpr string, logger *slog.Logger) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", cronExpr, err)
	}
	return &Sweeper{
		tokens:   tokens,
		schedule: schedule,
		logger:   logger.With("component", "sweeper"),
	}, nil
}

// Start blocks until ctx is done, sweeping on the configured schedule.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "next_run", s.schedule.Next(time.Now()))

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep marks every expired unused token as used. Safe to run at any
// time: redemption already rejects expired tokens on its own.
func (s *Sweeper) Sweep(ctx context.Context) {
	swept, err := s.tokens.MarkExpiredUsed(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "sweep expired tokens", "error", err)
		return
	}
	if swept > 0 {
		metrics.TokensSweptTotal.Add(float64(swept))
		s.logger.InfoContext(ctx, "swept expired tokens", "count", swept)
	}
}
