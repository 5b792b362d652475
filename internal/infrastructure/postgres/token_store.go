package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentloop/auth-service/internal/domain"
)

// TokenStore implements repository.VerificationTokenStore on postgres.
type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

func (s *TokenStore) Create(ctx context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error) {
	query := `
		INSERT INTO verification_tokens (user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, purpose, token_hash, expires_at, used, used_at, created_at`

	row := s.pool.QueryRow(ctx, query, t.UserID, string(t.Purpose), t.TokenHash, t.ExpiresAt)
	created, err := scanToken(row)
	if err != nil {
		return nil, fmt.Errorf("insert verification token: %w", err)
	}
	return created, nil
}

func (s *TokenStore) FindByHash(ctx context.Context, tokenHash string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, used, used_at, created_at
		FROM verification_tokens
		WHERE token_hash = $1 AND purpose = $2
		ORDER BY created_at DESC
		LIMIT 1`

	row := s.pool.QueryRow(ctx, query, tokenHash, string(purpose))
	t, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token by hash: %w", err)
	}
	return t, nil
}

func (s *TokenStore) FindUnused(ctx context.Context, userID string, purpose domain.TokenPurpose) ([]domain.VerificationToken, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, used, used_at, created_at
		FROM verification_tokens
		WHERE user_id = $1 AND purpose = $2 AND used = FALSE`

	rows, err := s.pool.Query(ctx, query, userID, string(purpose))
	if err != nil {
		return nil, fmt.Errorf("find unused tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.VerificationToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unused token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

func (s *TokenStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	// used = TRUE is terminal; the guard keeps the mutate-once lifecycle
	// even under concurrent redemption and invalidation.
	_, err := s.pool.Exec(ctx,
		`UPDATE verification_tokens SET used = TRUE, used_at = $2 WHERE id = $1 AND used = FALSE`,
		id, usedAt,
	)
	if err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	return nil
}

func (s *TokenStore) MarkExpiredUsed(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE verification_tokens SET used = TRUE, used_at = $1 WHERE used = FALSE AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("mark expired tokens used: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	var purpose string
	err := row.Scan(&t.ID, &t.UserID, &purpose, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Purpose = domain.TokenPurpose(purpose)
	return &t, nil
}
