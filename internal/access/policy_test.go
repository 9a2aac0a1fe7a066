package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/models"
	"kanban/internal/storage"
)

type fakeDirectory struct {
	users map[int64]models.User
	roles map[[2]int64]models.Role
	err   error
}

func (d *fakeDirectory) GetUser(_ context.Context, id int64) (models.User, error) {
	if d.err != nil {
		return models.User{}, d.err
	}
	u, ok := d.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (d *fakeDirectory) MemberRole(_ context.Context, projectID, userID int64) (models.Role, error) {
	r, ok := d.roles[[2]int64{projectID, userID}]
	if !ok {
		return "", storage.ErrNotFound
	}
	return r, nil
}

func TestStorePolicy_Authorize(t *testing.T) {
	dir := &fakeDirectory{
		users: map[int64]models.User{
			1: {ID: 1, IsAdmin: true},
			2: {ID: 2},
			3: {ID: 3},
			4: {ID: 4},
			5: {ID: 5},
		},
		roles: map[[2]int64]models.Role{
			{10, 2}: models.RoleAdmin,
			{10, 3}: models.RoleMember,
			{10, 4}: models.RoleViewer,
		},
	}
	p := NewStorePolicy(dir)

	tests := []struct {
		name     string
		actor    int64
		required models.Role
		want     bool
	}{
		{"company admin without membership", 1, models.RoleAdmin, true},
		{"project admin", 2, models.RoleAdmin, true},
		{"member cannot administer", 3, models.RoleAdmin, false},
		{"member mutates", 3, models.RoleMember, true},
		{"viewer reads", 4, models.RoleViewer, true},
		{"viewer cannot mutate", 4, models.RoleMember, false},
		{"non-member", 5, models.RoleViewer, false},
		{"unknown user", 99, models.RoleViewer, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Authorize(context.Background(), tt.actor, 10, tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorePolicy_PropagatesLookupFailures(t *testing.T) {
	boom := errors.New("db down")
	p := NewStorePolicy(&fakeDirectory{err: boom})

	ok, err := p.Authorize(context.Background(), 1, 10, models.RoleViewer)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}
