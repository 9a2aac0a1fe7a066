// Package access decides whether an actor may act on a project.
package access

import (
	"context"
	"errors"
	"fmt"

	"kanban/internal/models"
	"kanban/internal/storage"
)

// Policy is the authorization gate consulted before reads and mutations.
type Policy interface {
	Authorize(ctx context.Context, actorID, projectID int64, required models.Role) (bool, error)
}

// Directory is the lookup surface StorePolicy needs.
type Directory interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	MemberRole(ctx context.Context, projectID, userID int64) (models.Role, error)
}

// StorePolicy grants access from project membership roles. Company admins
// pass every check regardless of membership.
type StorePolicy struct {
	dir Directory
}

// NewStorePolicy builds a policy backed by dir.
func NewStorePolicy(dir Directory) *StorePolicy {
	return &StorePolicy{dir: dir}
}

// Authorize reports whether actorID holds at least required on projectID.
// Unknown actors and non-members are denied without error.
func (p *StorePolicy) Authorize(ctx context.Context, actorID, projectID int64, required models.Role) (bool, error) {
	user, err := p.dir.GetUser(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authorize: %w", err)
	}
	if user.IsAdmin {
		return true, nil
	}

	role, err := p.dir.MemberRole(ctx, projectID, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authorize: %w", err)
	}
	return role.Satisfies(required), nil
}
