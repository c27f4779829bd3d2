package console

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ListUsers returns all console accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var result struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// CreateUser creates a console account; the backend emails an invitation.
func (c *Client) CreateUser(ctx context.Context, spec UserSpec) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, spec, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces the writable fields of an account, including its
// role assignments.
func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, spec UserSpec) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/users/"+id.String(), nil, spec, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeactivateUser disables an account without deleting its audit trail.
func (c *Client) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/users/"+id.String()+"/deactivate", nil, nil, nil)
}

// ListRoles returns the grantable roles and their permissions.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var result struct {
		Roles []Role `json:"roles"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/roles", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Roles, nil
}
