package storage

import (
	"context"
	"fmt"
	"strings"

	"kanban/internal/models"
)

const userColumns = `id, name, email, is_admin, created_at`

// CreateUser persists a new account.
func (c conn) CreateUser(ctx context.Context, name, email string, isAdmin bool) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return models.User{}, fmt.Errorf("user name and email must not be empty")
	}

	id, err := c.insert(ctx, `INSERT INTO users(name, email, is_admin) VALUES(?, ?, ?) RETURNING id`, name, email, isAdmin)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return c.GetUser(ctx, id)
}

// GetUser fetches a single user by id.
func (c conn) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	if err := c.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return models.User{}, wrapNotFound(err, "get user")
	}
	return u, nil
}
