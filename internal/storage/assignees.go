package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ReplaceAssignees swaps the whole assignee set of a card for userIDs.
// Run it inside a transaction so the delete and inserts land together.
func (c conn) ReplaceAssignees(ctx context.Context, cardID int64, userIDs []int64) error {
	if _, err := c.exec(ctx, `DELETE FROM card_assignees WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	for _, uid := range userIDs {
		if _, err := c.exec(ctx, `INSERT INTO card_assignees(card_id, user_id) VALUES(?, ?)`, cardID, uid); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return nil
}

// AssigneesByCard returns the assignee ids of each card in cardIDs. Cards
// without assignees map to an empty slice.
func (c conn) AssigneesByCard(ctx context.Context, cardIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(cardIDs))
	if len(cardIDs) == 0 {
		return out, nil
	}
	for _, id := range cardIDs {
		out[id] = []int64{}
	}

	query, args, err := sqlx.In(`SELECT card_id, user_id FROM card_assignees WHERE card_id IN (?) ORDER BY card_id, user_id`, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("assignees: %w", err)
	}
	var rows []struct {
		CardID int64 `db:"card_id"`
		UserID int64 `db:"user_id"`
	}
	if err := c.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("assignees: %w", err)
	}
	for _, r := range rows {
		out[r.CardID] = append(out[r.CardID], r.UserID)
	}
	return out, nil
}
