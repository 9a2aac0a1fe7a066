package kanban

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"kanban/internal/apperr"
	"kanban/internal/events"
	"kanban/internal/models"
	"kanban/internal/ordering"
	"kanban/internal/storage"
)

// MoveRequest asks to place a card on TargetBoardID at NewPosition, counted
// among the target board's live cards. ExpectedVersion, when set, must match
// the target board's current version.
type MoveRequest struct {
	CardID          int64
	TargetBoardID   int64
	NewPosition     int
	ExpectedVersion *int64
}

// MoveResult reports the card after the move. Moved is false when the
// request matched the card's current place and nothing was written.
type MoveResult struct {
	Card  models.Card
	Moved bool
}

// errNoop rolls back the lock writes of a move that changes nothing.
var errNoop = errors.New("move is a no-op")

// MoveCard moves a card within its board or onto another board of the same
// project. Source and target boards are reindexed, and completedAt is
// recomputed against the target board, in one transaction.
func (s *Service) MoveCard(ctx context.Context, actorID, projectID int64, req MoveRequest) (MoveResult, error) {
	if req.NewPosition < 0 {
		return MoveResult{}, apperr.Field("newPosition", "must be zero or greater")
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return MoveResult{}, err
	}
	card, source, err := s.loadCard(ctx, projectID, req.CardID)
	if err != nil {
		return MoveResult{}, err
	}
	target, err := s.store.GetBoard(ctx, req.TargetBoardID)
	if err != nil {
		return MoveResult{}, storageErr(err, "board")
	}
	if target.ProjectID != source.ProjectID {
		return MoveResult{}, apperr.Field("targetBoardId", "board belongs to another project")
	}

	var res MoveResult
	err = s.store.WithTx(ctx, func(tx *storage.Tx) error {
		versions, err := lockBoards(ctx, tx, source.ID, target.ID)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != versions[target.ID] {
			return apperr.Conflict("target board changed, reload and retry")
		}

		cur, err := tx.GetCard(ctx, card.ID)
		if err != nil {
			return err
		}
		if cur.SoftDelete {
			return apperr.NotFound("card")
		}
		if cur.BoardID != source.ID {
			return apperr.Conflict("card was moved concurrently")
		}
		dest, err := tx.GetBoard(ctx, target.ID)
		if err != nil {
			return err
		}

		pos, err := reindexMove(ctx, tx, cur, dest.ID, req.NewPosition)
		if err != nil {
			return err
		}

		completedAt := NextCompletedAt(dest, cur.CompletedAt, s.now())
		if err := tx.PlaceCard(ctx, cur.ID, dest.ID, pos, completedAt); err != nil {
			return err
		}
		res.Card, err = readCard(ctx, tx, cur.ID)
		res.Moved = true
		return err
	})
	switch {
	case errors.Is(err, errNoop):
		res.Card, err = readCard(ctx, s.store, card.ID)
		if err != nil {
			return MoveResult{}, storageErr(err, "card")
		}
		return res, nil
	case err != nil:
		return MoveResult{}, storageErr(err, "card")
	}

	s.logger.Debug("card moved",
		slog.Int64("card_id", card.ID),
		slog.Int64("from_board", source.ID),
		slog.Int64("to_board", target.ID),
		slog.Int("position", res.Card.Position))
	s.publish(events.Event{
		Type:      events.CardMoved,
		ProjectID: projectID,
		BoardID:   target.ID,
		CardID:    card.ID,
		Payload:   res.Card,
	})
	return res, nil
}

// reindexMove writes the sibling shifts for moving cur to position to on board
// targetID and returns the position the card takes. It returns errNoop when
// the request names the card's stored place, or when the move would not
// change the order.
func reindexMove(ctx context.Context, tx *storage.Tx, cur models.Card, targetID int64, to int) (int, error) {
	if cur.BoardID == targetID {
		if to == cur.Position {
			return 0, errNoop
		}
		items, err := tx.CardItems(ctx, targetID)
		if err != nil {
			return 0, err
		}
		pos, shifts, ok := ordering.Move(items, cur.ID, to)
		if !ok {
			return 0, apperr.NotFound("card")
		}
		if len(shifts) == 0 {
			return 0, errNoop
		}
		siblings := slices.DeleteFunc(shifts, func(sh ordering.Shift) bool { return sh.ID == cur.ID })
		return pos, tx.ApplyCardShifts(ctx, siblings)
	}

	srcItems, err := tx.CardItems(ctx, cur.BoardID)
	if err != nil {
		return 0, err
	}
	if err := tx.ApplyCardShifts(ctx, ordering.Remove(srcItems, cur.ID)); err != nil {
		return 0, err
	}
	dstItems, err := tx.CardItems(ctx, targetID)
	if err != nil {
		return 0, err
	}
	pos, shifts := ordering.Insert(dstItems, to)
	return pos, tx.ApplyCardShifts(ctx, shifts)
}

// lockBoards locks every distinct board in ascending id order and returns
// the versions they had before locking.
func lockBoards(ctx context.Context, tx *storage.Tx, ids ...int64) (map[int64]int64, error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	versions := make(map[int64]int64, len(ids))
	for _, id := range ids {
		v, err := tx.LockBoard(ctx, id)
		if err != nil {
			return nil, err
		}
		versions[id] = v
	}
	return versions, nil
}
