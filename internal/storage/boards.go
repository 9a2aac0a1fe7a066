package storage

import (
	"context"
	"fmt"
	"strings"

	"kanban/internal/models"
	"kanban/internal/ordering"
)

const boardColumns = `id, project_id, title, position, is_terminal, version, created_at, updated_at`

// InsertBoard persists a board row at the given position. Callers are
// responsible for shifting siblings first.
func (c conn) InsertBoard(ctx context.Context, b models.Board) (int64, error) {
	id, err := c.insert(ctx, `INSERT INTO boards(project_id, title, position, is_terminal) VALUES(?, ?, ?, ?) RETURNING id`,
		b.ProjectID, b.Title, b.Position, b.IsTerminal)
	if err != nil {
		return 0, fmt.Errorf("insert board: %w", err)
	}
	return id, nil
}

// GetBoard fetches a single board by id.
func (c conn) GetBoard(ctx context.Context, id int64) (models.Board, error) {
	var b models.Board
	if err := c.get(ctx, &b, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id); err != nil {
		return models.Board{}, wrapNotFound(err, "get board")
	}
	return b, nil
}

// ListBoards returns the boards of a project ordered by position.
func (c conn) ListBoards(ctx context.Context, projectID int64) ([]models.Board, error) {
	boards := []models.Board{}
	err := c.selectAll(ctx, &boards, `SELECT `+boardColumns+` FROM boards WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// BoardItems returns the ordering view of a project's boards.
func (c conn) BoardItems(ctx context.Context, projectID int64) ([]ordering.Item, error) {
	var rows []positionRow
	if err := c.selectAll(ctx, &rows, `SELECT id, position FROM boards WHERE project_id = ? ORDER BY position, id`, projectID); err != nil {
		return nil, fmt.Errorf("board positions: %w", err)
	}
	return toItems(rows), nil
}

// UpdateBoard changes the title and/or terminal flag of a board. Nil fields
// are left untouched.
func (c conn) UpdateBoard(ctx context.Context, id int64, title *string, isTerminal *bool) error {
	set := []string{}
	args := []any{}
	if title != nil {
		set = append(set, "title = ?")
		args = append(args, *title)
	}
	if isTerminal != nil {
		set = append(set, "is_terminal = ?")
		args = append(args, *isTerminal)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	err := c.execOne(ctx, `UPDATE boards SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return wrapNotFound(err, "update board")
}

// DeleteBoard removes a board; its cards and their assignees cascade.
func (c conn) DeleteBoard(ctx context.Context, id int64) error {
	return wrapNotFound(c.execOne(ctx, `DELETE FROM boards WHERE id = ?`, id), "delete board")
}

// ApplyBoardShifts writes the new positions computed by the ordering package.
func (t *Tx) ApplyBoardShifts(ctx context.Context, shifts []ordering.Shift) error {
	for _, s := range shifts {
		if err := t.execOne(ctx, `UPDATE boards SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, s.To, s.ID); err != nil {
			return wrapNotFound(err, fmt.Sprintf("shift board %d", s.ID))
		}
	}
	return nil
}

// LockBoard takes the write lock on a board row for the rest of the
// transaction and bumps its version. It returns the version the board had
// before the bump.
func (t *Tx) LockBoard(ctx context.Context, id int64) (int64, error) {
	if err := t.execOne(ctx, `UPDATE boards SET version = version + 1 WHERE id = ?`, id); err != nil {
		return 0, wrapNotFound(err, "lock board")
	}
	var version int64
	if err := t.get(ctx, &version, `SELECT version FROM boards WHERE id = ?`, id); err != nil {
		return 0, wrapNotFound(err, "lock board")
	}
	return version - 1, nil
}

type positionRow struct {
	ID       int64 `db:"id"`
	Position int   `db:"position"`
}

func toItems(rows []positionRow) []ordering.Item {
	items := make([]ordering.Item, len(rows))
	for i, r := range rows {
		items[i] = ordering.Item{ID: r.ID, Position: r.Position}
	}
	return items
}
