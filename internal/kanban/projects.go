package kanban

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"kanban/internal/apperr"
	"kanban/internal/models"
	"kanban/internal/storage"
)

// CreateProject creates a project with the default boards. The actor becomes
// its first admin.
func (s *Service) CreateProject(ctx context.Context, actorID int64, name string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if err := checkTitle("name", name); err != nil {
		return models.Project{}, err
	}
	if _, err := s.store.GetUser(ctx, actorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Project{}, apperr.Forbidden()
		}
		return models.Project{}, apperr.Internal(err)
	}

	var project models.Project
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		id, err := tx.InsertProject(ctx, name)
		if err != nil {
			return err
		}
		if err := tx.UpsertMember(ctx, id, actorID, models.RoleAdmin); err != nil {
			return err
		}
		for i, title := range DefaultBoards {
			if _, err := tx.InsertBoard(ctx, models.Board{ProjectID: id, Title: title, Position: i}); err != nil {
				return err
			}
		}
		project, err = tx.GetProject(ctx, id)
		return err
	})
	if err != nil {
		return models.Project{}, storageErr(err, "project")
	}

	s.logger.Info("project created", slog.Int64("project_id", project.ID), slog.Int64("actor_id", actorID))
	return project, nil
}

// ListProjects returns the projects the actor can see. Company admins see
// every project.
func (s *Service) ListProjects(ctx context.Context, actorID int64) ([]models.Project, error) {
	user, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Forbidden()
		}
		return nil, apperr.Internal(err)
	}
	var projects []models.Project
	if user.IsAdmin {
		projects, err = s.store.ListProjects(ctx)
	} else {
		projects, err = s.store.ListProjectsForUser(ctx, actorID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return projects, nil
}

// BoardView returns every board of a project with its live cards in order.
func (s *Service) BoardView(ctx context.Context, actorID, projectID int64) ([]models.BoardWithCards, error) {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	boards, err := s.store.ListBoards(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	cards, err := s.store.ListProjectCards(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := withAssignees(ctx, s.store, cards); err != nil {
		return nil, apperr.Internal(err)
	}

	byBoard := make(map[int64][]models.Card, len(boards))
	for _, c := range cards {
		byBoard[c.BoardID] = append(byBoard[c.BoardID], c)
	}
	view := make([]models.BoardWithCards, 0, len(boards))
	for _, b := range boards {
		bc := byBoard[b.ID]
		if bc == nil {
			bc = []models.Card{}
		}
		view = append(view, models.BoardWithCards{Board: b, Cards: bc})
	}
	return view, nil
}

// ListMembers returns the members of a project.
func (s *Service) ListMembers(ctx context.Context, actorID, projectID int64) ([]models.Member, error) {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return members, nil
}

// SetMember adds userID to the project with role, or changes its role.
func (s *Service) SetMember(ctx context.Context, actorID, projectID, userID int64, role models.Role) error {
	if !role.Valid() {
		return apperr.Field("role", "must be one of viewer, member, admin")
	}
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return storageErr(err, "user")
	}
	if err := s.store.UpsertMember(ctx, projectID, userID, role); err != nil {
		return apperr.Internal(err)
	}
	s.logger.Info("member set",
		slog.Int64("project_id", projectID),
		slog.Int64("user_id", userID),
		slog.String("role", string(role)))
	return nil
}

// RemoveMember drops userID from the project. Existing card assignments are
// kept until the next assignee replace filters them out.
func (s *Service) RemoveMember(ctx context.Context, actorID, projectID, userID int64) error {
	if _, err := s.loadProject(ctx, actorID, projectID, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.RemoveMember(ctx, projectID, userID); err != nil {
		return storageErr(err, "member")
	}
	return nil
}
