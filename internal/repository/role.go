package repository

import "context"

// RoleDirectory resolves a bare role identifier to its display name.
type RoleDirectory interface {
	FindRoleName(ctx context.Context, id string) (string, error)
}
