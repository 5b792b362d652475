package cms

import (
	"context"
	"fmt"
	"time"

	"github.com/rentloop/auth-service/internal/domain"
)

const tokensCollection = "verification_tokens"

// TokenStore implements repository.VerificationTokenStore on a CMS
// collection. Rows are only ever created and patched, never deleted, so
// the collection doubles as the verification audit trail.
type TokenStore struct {
	client *Client
}

func NewTokenStore(client *Client) *TokenStore {
	return &TokenStore{client: client}
}

type tokenRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Purpose   string     `json:"purpose"`
	TokenHash string     `json:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *tokenRecord) toDomain() *domain.VerificationToken {
	return &domain.VerificationToken{
		ID:        r.ID,
		UserID:    r.UserID,
		Purpose:   domain.TokenPurpose(r.Purpose),
		TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt,
		Used:      r.Used,
		UsedAt:    r.UsedAt,
		CreatedAt: r.CreatedAt,
	}
}

func (s *TokenStore) Create(ctx context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error) {
	payload := map[string]any{
		"user_id":    t.UserID,
		"purpose":    string(t.Purpose),
		"token_hash": t.TokenHash,
		"expires_at": t.ExpiresAt.UTC().Format(time.RFC3339),
		"used":       false,
	}

	var rec tokenRecord
	if err := s.client.CreateItem(ctx, tokensCollection, payload, &rec); err != nil {
		return nil, fmt.Errorf("create verification token: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *TokenStore) FindByHash(ctx context.Context, tokenHash string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	q := Query{
		Predicates: []Predicate{
			Eq("token_hash", tokenHash),
			Eq("purpose", string(purpose)),
		},
		Sort:  "-created_at",
		Limit: 1,
	}

	var recs []tokenRecord
	if err := s.client.ListItems(ctx, tokensCollection, q, &recs); err != nil {
		return nil, fmt.Errorf("find token by hash: %w", err)
	}
	if len(recs) == 0 {
		return nil, domain.ErrTokenNotFound
	}
	return recs[0].toDomain(), nil
}

func (s *TokenStore) FindUnused(ctx context.Context, userID string, purpose domain.TokenPurpose) ([]domain.VerificationToken, error) {
	q := Query{
		Predicates: []Predicate{
			Eq("user_id", userID),
			Eq("purpose", string(purpose)),
			Eq("used", "false"),
		},
	}

	var recs []tokenRecord
	if err := s.client.ListItems(ctx, tokensCollection, q, &recs); err != nil {
		return nil, fmt.Errorf("find unused tokens: %w", err)
	}

	tokens := make([]domain.VerificationToken, len(recs))
	for i := range recs {
		tokens[i] = *recs[i].toDomain()
	}
	return tokens, nil
}

func (s *TokenStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	payload := map[string]any{
		"used":    true,
		"used_at": usedAt.UTC().Format(time.RFC3339),
	}
	if err := s.client.UpdateItem(ctx, tokensCollection, id, payload, nil); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	return nil
}

func (s *TokenStore) MarkExpiredUsed(ctx context.Context, now time.Time) (int, error) {
	q := Query{
		Predicates: []Predicate{
			Eq("used", "false"),
			Lte("expires_at", now.UTC().Format(time.RFC3339)),
		},
	}

	var recs []tokenRecord
	if err := s.client.ListItems(ctx, tokensCollection, q, &recs); err != nil {
		return 0, fmt.Errorf("find expired tokens: %w", err)
	}

	swept := 0
	for i := range recs {
		if err := s.MarkUsed(ctx, recs[i].ID, now); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}
