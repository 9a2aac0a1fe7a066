package kanban

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kanban/internal/apperr"
	"kanban/internal/events"
	"kanban/internal/models"
	"kanban/internal/ordering"
	"kanban/internal/storage"
)

// CardInput describes a new card. A nil Position appends it; an empty
// Priority defaults to medium.
type CardInput struct {
	BoardID     int64
	Title       string
	Description string
	Position    *int
	Priority    models.Priority
	StartDate   *time.Time
	DueDate     *time.Time
	AssigneeIDs []int64
}

// CardPatch is a partial card edit. A non-nil AssigneeIDs replaces the whole
// assignee set, an empty slice clears it.
type CardPatch struct {
	storage.CardUpdate
	AssigneeIDs *[]int64
}

// ListCards returns the live cards of a board in order.
func (s *Service) ListCards(ctx context.Context, actorID, projectID, boardID int64) ([]models.Card, error) {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	if _, err := s.loadBoard(ctx, projectID, boardID); err != nil {
		return nil, err
	}
	cards, err := s.store.ListCards(ctx, boardID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := withAssignees(ctx, s.store, cards); err != nil {
		return nil, apperr.Internal(err)
	}
	return cards, nil
}

// GetCard returns a live card of the project.
func (s *Service) GetCard(ctx context.Context, actorID, projectID, cardID int64) (models.Card, error) {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleViewer); err != nil {
		return models.Card{}, err
	}
	if _, _, err := s.loadCard(ctx, projectID, cardID); err != nil {
		return models.Card{}, err
	}
	card, err := readCard(ctx, s.store, cardID)
	if err != nil {
		return models.Card{}, storageErr(err, "card")
	}
	return card, nil
}

// CreateCard inserts a card on in.BoardID. Completion is not inferred on
// create; a card created on a completed board starts without completedAt.
func (s *Service) CreateCard(ctx context.Context, actorID, projectID int64, in CardInput) (models.Card, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if err := validateCardInput(in); err != nil {
		return models.Card{}, err
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return models.Card{}, err
	}
	if _, err := s.loadBoard(ctx, projectID, in.BoardID); err != nil {
		return models.Card{}, err
	}

	var card models.Card
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if _, err := tx.LockBoard(ctx, in.BoardID); err != nil {
			return err
		}
		items, err := tx.CardItems(ctx, in.BoardID)
		if err != nil {
			return err
		}
		at := ordering.Append
		if in.Position != nil {
			at = *in.Position
		}
		pos, shifts := ordering.Insert(items, at)
		if err := tx.ApplyCardShifts(ctx, shifts); err != nil {
			return err
		}
		id, err := tx.InsertCard(ctx, models.Card{
			BoardID:     in.BoardID,
			Title:       in.Title,
			Description: in.Description,
			Position:    pos,
			Priority:    in.Priority,
			StartDate:   in.StartDate,
			DueDate:     in.DueDate,
		})
		if err != nil {
			return err
		}
		if len(in.AssigneeIDs) > 0 {
			if err := s.replaceAssignees(ctx, tx, projectID, id, in.AssigneeIDs); err != nil {
				return err
			}
		}
		card, err = readCard(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Card{}, storageErr(err, "board")
	}

	s.publish(events.Event{Type: events.CardCreated, ProjectID: projectID, BoardID: card.BoardID, CardID: card.ID, Payload: card})
	return card, nil
}

func validateCardInput(in CardInput) error {
	fields := map[string]string{}
	collect(fields, checkTitle("title", in.Title))
	collect(fields, checkPosition("position", in.Position))
	collect(fields, checkPriority(in.Priority))
	collect(fields, checkDates(in.StartDate, in.DueDate))
	if len(fields) > 0 {
		return apperr.Validation("validation failed", fields)
	}
	return nil
}

// collect merges the field details of a validation error into fields.
func collect(fields map[string]string, err error) {
	if err == nil {
		return
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		for k, v := range ae.Fields {
			fields[k] = v
		}
	}
}

// EditCard applies a partial edit. Board and position are never changed
// here; completedAt may be set or cleared explicitly and stays until the next
// move re-evaluates it.
func (s *Service) EditCard(ctx context.Context, actorID, projectID, cardID int64, patch CardPatch) (models.Card, error) {
	fields := map[string]string{}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		collect(fields, checkTitle("title", t))
		patch.Title = &t
	}
	if patch.Priority != nil {
		collect(fields, checkPriority(*patch.Priority))
	}
	if patch.StartDate.Set && patch.DueDate.Set {
		collect(fields, checkDates(patch.StartDate.Value, patch.DueDate.Value))
	}
	if len(fields) > 0 {
		return models.Card{}, apperr.Validation("validation failed", fields)
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return models.Card{}, err
	}
	stored, _, err := s.loadCard(ctx, projectID, cardID)
	if err != nil {
		return models.Card{}, err
	}
	// A date sent alone is checked against the other stored date.
	if patch.StartDate.Set != patch.DueDate.Set {
		start, due := stored.StartDate, stored.DueDate
		if patch.StartDate.Set {
			start = patch.StartDate.Value
		} else {
			due = patch.DueDate.Value
		}
		if err := checkDates(start, due); err != nil {
			return models.Card{}, err
		}
	}

	var card models.Card
	err = s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if err := tx.UpdateCard(ctx, cardID, patch.CardUpdate); err != nil {
			return err
		}
		if patch.AssigneeIDs != nil {
			if err := s.replaceAssignees(ctx, tx, projectID, cardID, *patch.AssigneeIDs); err != nil {
				return err
			}
		}
		var err error
		card, err = readCard(ctx, tx, cardID)
		return err
	})
	if err != nil {
		return models.Card{}, storageErr(err, "card")
	}

	s.publish(events.Event{Type: events.CardUpdated, ProjectID: projectID, BoardID: card.BoardID, CardID: card.ID, Payload: card})
	return card, nil
}

// DeleteCard soft-deletes a card. The row keeps its position; with
// CompactOnDelete the remaining cards of the board are renumbered.
func (s *Service) DeleteCard(ctx context.Context, actorID, projectID, cardID int64) error {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleMember); err != nil {
		return err
	}
	card, _, err := s.loadCard(ctx, projectID, cardID)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx *storage.Tx) error {
		if _, err := tx.LockBoard(ctx, card.BoardID); err != nil {
			return err
		}
		cur, err := tx.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		if cur.SoftDelete {
			return apperr.NotFound("card")
		}
		if cur.BoardID != card.BoardID {
			return apperr.Conflict("card was moved concurrently")
		}
		items, err := tx.CardItems(ctx, cur.BoardID)
		if err != nil {
			return err
		}
		if err := tx.SoftDeleteCard(ctx, cardID); err != nil {
			return err
		}
		if !s.compactOnDelete {
			return nil
		}
		return tx.ApplyCardShifts(ctx, ordering.Remove(items, cardID))
	})
	if err != nil {
		return storageErr(err, "card")
	}

	s.logger.Debug("card deleted", slog.Int64("card_id", cardID), slog.Int64("board_id", card.BoardID))
	s.publish(events.Event{Type: events.CardDeleted, ProjectID: projectID, BoardID: card.BoardID, CardID: cardID})
	return nil
}
