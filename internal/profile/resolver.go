// Package profile normalizes role shapes and computes the
// profile-completion verdict that gates housing applications.
package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/repository"
)

// Resolver turns a raw RoleRef into the canonical role tag. It never
// returns an error: every failure path collapses into RoleUnknown so the
// evaluator can apply its conservative bias instead of the caller guessing.
type Resolver struct {
	roles  repository.RoleDirectory
	logger *slog.Logger
}

func NewResolver(roles repository.RoleDirectory, logger *slog.Logger) *Resolver {
	return &Resolver{roles: roles, logger: logger.With("component", "role_resolver")}
}

func (r *Resolver) Resolve(ctx context.Context, ref domain.RoleRef) domain.CanonicalRole {
	if ref.Name != "" {
		return canonicalize(ref.Name)
	}

	if ref.ID != "" {
		name, err := r.roles.FindRoleName(ctx, ref.ID)
		if err != nil {
			r.logger.WarnContext(ctx, "role lookup failed", "role_id", ref.ID, "error", err)
			return domain.RoleUnknown
		}
		return canonicalize(name)
	}

	return domain.RoleUnknown
}

func canonicalize(name string) domain.CanonicalRole {
	tag := strings.ToLower(strings.TrimSpace(name))
	if tag == "" {
		return domain.RoleUnknown
	}
	return domain.CanonicalRole(tag)
}
