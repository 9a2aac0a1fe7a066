package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role is a project member's permission level.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether r grants at least the required role.
func (r Role) Satisfies(required Role) bool {
	return r.Valid() && roleRank[r] >= roleRank[required]
}

// Priority ranks a card.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriorities enumerates the priorities a card may carry.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

// User is an account that can be a member of projects. IsAdmin marks a
// company administrator who bypasses project roles.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Project groups boards and their members.
type Project struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Member links a user to a project with a role.
type Member struct {
	ProjectID int64  `db:"project_id" json:"projectId"`
	UserID    int64  `db:"user_id" json:"userId"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Role      Role   `db:"role" json:"role"`
}

// Board is an ordered column within a project.
type Board struct {
	ID        int64  `db:"id" json:"id"`
	ProjectID int64  `db:"project_id" json:"projectId"`
	Title     string `db:"title" json:"title"`
	Position  int    `db:"position" json:"position"`
	// IsTerminal overrides title-based completion inference when set.
	IsTerminal *bool     `db:"is_terminal" json:"isTerminal"`
	Version    int64     `db:"version" json:"version"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Card is a work item that sits on exactly one board.
type Card struct {
	ID          int64      `db:"id" json:"id"`
	BoardID     int64      `db:"board_id" json:"boardId"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Position    int        `db:"position" json:"position"`
	Priority    Priority   `db:"priority" json:"priority"`
	StartDate   *time.Time `db:"start_date" json:"startDate"`
	DueDate     *time.Time `db:"due_date" json:"dueDate"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
	SoftDelete  bool       `db:"soft_delete" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	AssigneeIDs []int64    `db:"-" json:"assigneeIds"`
}

// BoardWithCards is the board view returned to clients.
type BoardWithCards struct {
	Board
	Cards []Card `json:"cards"`
}

// OptionalTime distinguishes an absent JSON field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON records that the field was present and decodes its value.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}
