package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kanban/internal/models"
	"kanban/internal/ordering"
)

const cardColumns = `id, board_id, title, description, position, priority, start_date, due_date, completed_at, soft_delete, created_at, updated_at`

// CardUpdate lists the editable card fields. Nil pointers and unset
// OptionalTime values are left untouched.
type CardUpdate struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	StartDate   models.OptionalTime
	DueDate     models.OptionalTime
	CompletedAt models.OptionalTime
}

// InsertCard persists a card row at c.Position. Callers are responsible for
// shifting siblings first.
func (c conn) InsertCard(ctx context.Context, card models.Card) (int64, error) {
	id, err := c.insert(ctx, `INSERT INTO cards(board_id, title, description, position, priority, start_date, due_date, completed_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		card.BoardID, card.Title, card.Description, card.Position, string(card.Priority),
		card.StartDate, card.DueDate, card.CompletedAt)
	if err != nil {
		return 0, fmt.Errorf("insert card: %w", err)
	}
	return id, nil
}

// GetCard retrieves a card by id, including soft-deleted ones.
func (c conn) GetCard(ctx context.Context, id int64) (models.Card, error) {
	var card models.Card
	if err := c.get(ctx, &card, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id); err != nil {
		return models.Card{}, wrapNotFound(err, "get card")
	}
	return card, nil
}

// ListCards returns the live cards of a board ordered by position.
func (c conn) ListCards(ctx context.Context, boardID int64) ([]models.Card, error) {
	cards := []models.Card{}
	err := c.selectAll(ctx, &cards, `SELECT `+cardColumns+` FROM cards
        WHERE board_id = ? AND soft_delete = ? ORDER BY position, id`, boardID, false)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// ListProjectCards returns the live cards of every board in a project ordered
// by board position and card position.
func (c conn) ListProjectCards(ctx context.Context, projectID int64) ([]models.Card, error) {
	cols := "c." + strings.ReplaceAll(cardColumns, ", ", ", c.")
	cards := []models.Card{}
	err := c.selectAll(ctx, &cards, `SELECT `+cols+` FROM cards c JOIN boards b ON b.id = c.board_id
        WHERE b.project_id = ? AND c.soft_delete = ? ORDER BY b.position, b.id, c.position, c.id`, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("list project cards: %w", err)
	}
	return cards, nil
}

// CardItems returns the ordering view of a board's live cards.
func (c conn) CardItems(ctx context.Context, boardID int64) ([]ordering.Item, error) {
	var rows []positionRow
	err := c.selectAll(ctx, &rows, `SELECT id, position FROM cards
        WHERE board_id = ? AND soft_delete = ? ORDER BY position, id`, boardID, false)
	if err != nil {
		return nil, fmt.Errorf("card positions: %w", err)
	}
	return toItems(rows), nil
}

// UpdateCard applies a partial edit to a card.
func (c conn) UpdateCard(ctx context.Context, id int64, u CardUpdate) error {
	set := []string{}
	args := []any{}
	if u.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, string(*u.Priority))
	}
	for _, f := range []struct {
		col string
		val models.OptionalTime
	}{
		{"start_date", u.StartDate},
		{"due_date", u.DueDate},
		{"completed_at", u.CompletedAt},
	} {
		if f.val.Set {
			set = append(set, f.col+" = ?")
			args = append(args, f.val.Value)
		}
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	err := c.execOne(ctx, `UPDATE cards SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return wrapNotFound(err, "update card")
}

// SoftDeleteCard flags a card as deleted. Its row and position are kept.
func (c conn) SoftDeleteCard(ctx context.Context, id int64) error {
	err := c.execOne(ctx, `UPDATE cards SET soft_delete = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, true, id)
	return wrapNotFound(err, "soft delete card")
}

// ApplyCardShifts writes the sibling positions computed by the ordering
// package.
func (t *Tx) ApplyCardShifts(ctx context.Context, shifts []ordering.Shift) error {
	for _, s := range shifts {
		if err := t.execOne(ctx, `UPDATE cards SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, s.To, s.ID); err != nil {
			return wrapNotFound(err, fmt.Sprintf("shift card %d", s.ID))
		}
	}
	return nil
}

// PlaceCard sets the board, position and completion timestamp of a moved card.
func (t *Tx) PlaceCard(ctx context.Context, id, boardID int64, position int, completedAt *time.Time) error {
	err := t.execOne(ctx, `UPDATE cards SET board_id = ?, position = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boardID, position, completedAt, id)
	return wrapNotFound(err, "place card")
}
