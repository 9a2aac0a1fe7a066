package kanban

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"kanban/internal/apperr"
	"kanban/internal/events"
	"kanban/internal/models"
	"kanban/internal/ordering"
	"kanban/internal/storage"
)

// BoardInput describes a new board. A nil Position appends it.
type BoardInput struct {
	Title      string
	Position   *int
	IsTerminal *bool
}

// BoardPatch is a partial board update. Nil fields are left untouched.
type BoardPatch struct {
	Title      *string
	Position   *int
	IsTerminal *bool
}

// BoardPosition is one entry of a batch reorder.
type BoardPosition struct {
	ID       int64
	Position int
}

// ListBoards returns the boards of a project in order.
func (s *Service) ListBoards(ctx context.Context, actorID, projectID int64) ([]models.Board, error) {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	boards, err := s.store.ListBoards(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return boards, nil
}

// CreateBoard inserts a board at in.Position, shifting later boards right.
func (s *Service) CreateBoard(ctx context.Context, actorID, projectID int64, in BoardInput) (models.Board, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := checkTitle("title", in.Title); err != nil {
		return models.Board{}, err
	}
	if err := checkPosition("position", in.Position); err != nil {
		return models.Board{}, err
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return models.Board{}, err
	}

	var board models.Board
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return err
		}
		items, err := tx.BoardItems(ctx, projectID)
		if err != nil {
			return err
		}
		at := ordering.Append
		if in.Position != nil {
			at = *in.Position
		}
		pos, shifts := ordering.Insert(items, at)
		if err := tx.ApplyBoardShifts(ctx, shifts); err != nil {
			return err
		}
		id, err := tx.InsertBoard(ctx, models.Board{
			ProjectID:  projectID,
			Title:      in.Title,
			Position:   pos,
			IsTerminal: in.IsTerminal,
		})
		if err != nil {
			return err
		}
		board, err = tx.GetBoard(ctx, id)
		return err
	})
	if err != nil {
		return models.Board{}, storageErr(err, "project")
	}

	s.publish(events.Event{Type: events.BoardCreated, ProjectID: projectID, BoardID: board.ID, Payload: board})
	return board, nil
}

// UpdateBoard renames, repositions or re-flags a board.
func (s *Service) UpdateBoard(ctx context.Context, actorID, projectID, boardID int64, patch BoardPatch) (models.Board, error) {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if err := checkTitle("title", t); err != nil {
			return models.Board{}, err
		}
		patch.Title = &t
	}
	if err := checkPosition("position", patch.Position); err != nil {
		return models.Board{}, err
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return models.Board{}, err
	}
	if _, err := s.loadBoard(ctx, projectID, boardID); err != nil {
		return models.Board{}, err
	}

	var board models.Board
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if patch.Position != nil {
			if err := tx.LockProject(ctx, projectID); err != nil {
				return err
			}
			items, err := tx.BoardItems(ctx, projectID)
			if err != nil {
				return err
			}
			_, shifts, ok := ordering.Move(items, boardID, *patch.Position)
			if !ok {
				return apperr.NotFound("board")
			}
			if err := tx.ApplyBoardShifts(ctx, shifts); err != nil {
				return err
			}
		}
		if err := tx.UpdateBoard(ctx, boardID, patch.Title, patch.IsTerminal); err != nil {
			return err
		}
		var err error
		board, err = tx.GetBoard(ctx, boardID)
		return err
	})
	if err != nil {
		return models.Board{}, storageErr(err, "board")
	}

	s.publish(events.Event{Type: events.BoardUpdated, ProjectID: projectID, BoardID: boardID, Payload: board})
	return board, nil
}

// ReorderBoards applies a full permutation of the project's boards. The
// entries must name every board exactly once and their positions must be
// 0..n-1.
func (s *Service) ReorderBoards(ctx context.Context, actorID, projectID int64, order []BoardPosition) error {
	if len(order) == 0 {
		return apperr.Field("boards", "is required")
	}
	fields := map[string]string{}
	for i, e := range order {
		if e.Position < 0 {
			fields["boards["+strconv.Itoa(i)+"].position"] = "must be zero or greater"
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("validation failed", fields)
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return err
		}
		items, err := tx.BoardItems(ctx, projectID)
		if err != nil {
			return err
		}
		shifts, err := permutationShifts(items, order)
		if err != nil {
			return err
		}
		return tx.ApplyBoardShifts(ctx, shifts)
	})
	if err != nil {
		return storageErr(err, "project")
	}

	s.publish(events.Event{Type: events.BoardsReordered, ProjectID: projectID, Payload: order})
	return nil
}

// permutationShifts checks order against the current boards and returns the
// writes needed to apply it.
func permutationShifts(items []ordering.Item, order []BoardPosition) ([]ordering.Shift, error) {
	if len(order) != len(items) {
		return nil, apperr.Field("boards", "must list every board of the project exactly once")
	}
	current := make(map[int64]int, len(items))
	for _, it := range items {
		current[it.ID] = it.Position
	}
	seen := make(map[int64]struct{}, len(order))
	positions := make([]int, 0, len(order))
	for _, e := range order {
		if _, ok := current[e.ID]; !ok {
			return nil, apperr.Field("boards", "unknown board "+strconv.FormatInt(e.ID, 10))
		}
		if _, dup := seen[e.ID]; dup {
			return nil, apperr.Field("boards", "duplicate board "+strconv.FormatInt(e.ID, 10))
		}
		seen[e.ID] = struct{}{}
		positions = append(positions, e.Position)
	}
	if !ordering.IsDense(positions) {
		return nil, apperr.Field("boards", "positions must form 0..n-1")
	}

	shifts := []ordering.Shift{}
	for _, e := range order {
		if from := current[e.ID]; from != e.Position {
			shifts = append(shifts, ordering.Shift{ID: e.ID, From: from, To: e.Position})
		}
	}
	return shifts, nil
}

// DeleteBoard removes a board and its cards. With CompactOnDelete the
// remaining boards are renumbered.
func (s *Service) DeleteBoard(ctx context.Context, actorID, projectID, boardID int64) error {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.loadBoard(ctx, projectID, boardID); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return err
		}
		items, err := tx.BoardItems(ctx, projectID)
		if err != nil {
			return err
		}
		if err := tx.DeleteBoard(ctx, boardID); err != nil {
			return err
		}
		if !s.compactOnDelete {
			return nil
		}
		return tx.ApplyBoardShifts(ctx, ordering.Remove(items, boardID))
	})
	if err != nil {
		return storageErr(err, "board")
	}

	s.logger.Info("board deleted", slog.Int64("project_id", projectID), slog.Int64("board_id", boardID))
	s.publish(events.Event{Type: events.BoardDeleted, ProjectID: projectID, BoardID: boardID})
	return nil
}
