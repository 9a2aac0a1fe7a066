// Package kanban implements the board registry, the card store and the move
// coordinator that keep card and board positions dense.
package kanban

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"kanban/internal/access"
	"kanban/internal/apperr"
	"kanban/internal/events"
	"kanban/internal/models"
	"kanban/internal/storage"
)

// DefaultBoards are created, in order, with every new project.
var DefaultBoards = []string{"To Do", "In Progress", "Done"}

// Publisher receives an event after the mutation it describes has committed.
type Publisher interface {
	Publish(ev events.Event)
}

// Options tunes a Service.
type Options struct {
	// CompactOnDelete renumbers the remaining siblings when a card is
	// soft-deleted or a board is deleted. When false, deletes leave a gap
	// that the next move touching the collection closes.
	CompactOnDelete bool
	// Now overrides the clock used for completion timestamps.
	Now func() time.Time
	// Publisher receives change events; nil disables publishing.
	Publisher Publisher
}

// Service exposes the kanban operations. Every method takes the acting user
// and checks the access policy before touching data.
type Service struct {
	store           *storage.Store
	policy          access.Policy
	logger          *slog.Logger
	compactOnDelete bool
	now             func() time.Time
	pub             Publisher
}

// New constructs a Service.
func New(store *storage.Store, policy access.Policy, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:           store,
		policy:          policy,
		logger:          logger,
		compactOnDelete: opts.CompactOnDelete,
		now:             now,
		pub:             opts.Publisher,
	}
}

func (s *Service) authorize(ctx context.Context, actorID, projectID int64, required models.Role) error {
	ok, err := s.policy.Authorize(ctx, actorID, projectID, required)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.Forbidden()
	}
	return nil
}

func (s *Service) publish(ev events.Event) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(ev)
}

// loadProject resolves a project and checks that actorID holds required on it.
func (s *Service) loadProject(ctx context.Context, actorID, projectID int64, required models.Role) (models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return models.Project{}, storageErr(err, "project")
	}
	if err := s.authorize(ctx, actorID, projectID, required); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// loadBoard resolves a board that must belong to projectID.
func (s *Service) loadBoard(ctx context.Context, projectID, boardID int64) (models.Board, error) {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return models.Board{}, storageErr(err, "board")
	}
	if board.ProjectID != projectID {
		return models.Board{}, apperr.NotFound("board")
	}
	return board, nil
}

// loadCard resolves a live card and its board, both inside projectID.
func (s *Service) loadCard(ctx context.Context, projectID, cardID int64) (models.Card, models.Board, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return models.Card{}, models.Board{}, storageErr(err, "card")
	}
	if card.SoftDelete {
		return models.Card{}, models.Board{}, apperr.NotFound("card")
	}
	board, err := s.store.GetBoard(ctx, card.BoardID)
	if err != nil {
		return models.Card{}, models.Board{}, storageErr(err, "board")
	}
	if board.ProjectID != projectID {
		return models.Card{}, models.Board{}, apperr.NotFound("card")
	}
	return card, board, nil
}

// storageErr maps storage failures onto the error taxonomy. Errors that are
// already classified pass through.
func storageErr(err error, what string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(what)
	default:
		return apperr.Internal(err)
	}
}
