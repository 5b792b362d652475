package cms

import (
	"context"
	"fmt"
)

const rolesCollection = "roles"

// RoleDirectory resolves role ids against the roles collection.
type RoleDirectory struct {
	client *Client
}

func NewRoleDirectory(client *Client) *RoleDirectory {
	return &RoleDirectory{client: client}
}

func (d *RoleDirectory) FindRoleName(ctx context.Context, id string) (string, error) {
	q := Query{Predicates: []Predicate{Eq("id", id)}, Limit: 1}

	var recs []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := d.client.ListItems(ctx, rolesCollection, q, &recs); err != nil {
		return "", fmt.Errorf("find role %s: %w", id, err)
	}
	if len(recs) == 0 {
		return "", nil
	}
	return recs[0].Name, nil
}
