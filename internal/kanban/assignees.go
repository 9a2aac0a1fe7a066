package kanban

import (
	"context"
	"log/slog"
	"slices"

	"kanban/internal/models"
	"kanban/internal/storage"
)

type assigneeReader interface {
	AssigneesByCard(ctx context.Context, cardIDs []int64) (map[int64][]int64, error)
}

type cardReader interface {
	assigneeReader
	GetCard(ctx context.Context, id int64) (models.Card, error)
}

// withAssignees fills AssigneeIDs on every card in place.
func withAssignees(ctx context.Context, r assigneeReader, cards []models.Card) error {
	ids := make([]int64, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	byCard, err := r.AssigneesByCard(ctx, ids)
	if err != nil {
		return err
	}
	for i := range cards {
		cards[i].AssigneeIDs = byCard[cards[i].ID]
	}
	return nil
}

// replaceAssignees swaps the card's assignee set for the members among ids.
// Ids that are not current project members are dropped.
func (s *Service) replaceAssignees(ctx context.Context, tx *storage.Tx, projectID, cardID int64, ids []int64) error {
	wanted := slices.Clone(ids)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	members, err := tx.FilterMembers(ctx, projectID, wanted)
	if err != nil {
		return err
	}
	if dropped := len(wanted) - len(members); dropped > 0 {
		s.logger.Debug("dropped non-member assignees",
			slog.Int64("card_id", cardID),
			slog.Int("dropped", dropped))
	}
	return tx.ReplaceAssignees(ctx, cardID, members)
}

// readCard loads a card with its assignees through q.
func readCard(ctx context.Context, q cardReader, id int64) (models.Card, error) {
	card, err := q.GetCard(ctx, id)
	if err != nil {
		return models.Card{}, err
	}
	cards := []models.Card{card}
	if err := withAssignees(ctx, q, cards); err != nil {
		return models.Card{}, err
	}
	return cards[0], nil
}
