package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"kanban/internal/models"
)

const projectColumns = `id, name, created_at, updated_at`

// InsertProject persists a new project row and returns its id.
func (c conn) InsertProject(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("project name must not be empty")
	}
	id, err := c.insert(ctx, `INSERT INTO projects(name) VALUES(?) RETURNING id`, name)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

// GetProject fetches a single project by id.
func (c conn) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	if err := c.get(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id); err != nil {
		return models.Project{}, wrapNotFound(err, "get project")
	}
	return p, nil
}

// ListProjects returns every project ordered by creation.
func (c conn) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	if err := c.selectAll(ctx, &projects, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListProjectsForUser returns the projects userID is a member of.
func (c conn) ListProjectsForUser(ctx context.Context, userID int64) ([]models.Project, error) {
	projects := []models.Project{}
	err := c.selectAll(ctx, &projects, `SELECT p.id, p.name, p.created_at, p.updated_at
        FROM projects p JOIN project_members m ON m.project_id = p.id
        WHERE m.user_id = ? ORDER BY p.created_at, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects for user: %w", err)
	}
	return projects, nil
}

// LockProject takes the write lock on a project row for the rest of the
// transaction. Board create, reorder and delete serialize on it.
func (t *Tx) LockProject(ctx context.Context, id int64) error {
	err := t.execOne(ctx, `UPDATE projects SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return wrapNotFound(err, "lock project")
}

// UpsertMember adds userID to the project or changes its role.
func (c conn) UpsertMember(ctx context.Context, projectID, userID int64, role models.Role) error {
	_, err := c.exec(ctx, `INSERT INTO project_members(project_id, user_id, role) VALUES(?, ?, ?)
        ON CONFLICT (project_id, user_id) DO UPDATE SET role = excluded.role`, projectID, userID, string(role))
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership.
func (c conn) RemoveMember(ctx context.Context, projectID, userID int64) error {
	err := c.execOne(ctx, `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	return wrapNotFound(err, "remove member")
}

// ListMembers returns the members of a project with their user details.
func (c conn) ListMembers(ctx context.Context, projectID int64) ([]models.Member, error) {
	members := []models.Member{}
	err := c.selectAll(ctx, &members, `SELECT m.project_id, m.user_id, u.name, u.email, m.role
        FROM project_members m JOIN users u ON u.id = m.user_id
        WHERE m.project_id = ? ORDER BY u.name, u.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// MemberRole returns the role userID holds in the project, or ErrNotFound.
func (c conn) MemberRole(ctx context.Context, projectID, userID int64) (models.Role, error) {
	var role string
	err := c.get(ctx, &role, `SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return "", wrapNotFound(err, "member role")
	}
	return models.Role(role), nil
}

// FilterMembers returns the subset of userIDs that are members of the
// project, in ascending order.
func (c conn) FilterMembers(ctx context.Context, projectID int64, userIDs []int64) ([]int64, error) {
	out := []int64{}
	if len(userIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT user_id FROM project_members WHERE project_id = ? AND user_id IN (?) ORDER BY user_id`, projectID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("filter members: %w", err)
	}
	if err := c.selectAll(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("filter members: %w", err)
	}
	return out, nil
}
