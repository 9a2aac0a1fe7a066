package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kanban/internal/apperr"
	"kanban/internal/kanban"
	"kanban/internal/models"
	"kanban/internal/storage"
)

type createCardRequest struct {
	BoardID     int64           `json:"boardId"`
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	Position    *int            `json:"position" binding:"omitempty,gte=0"`
	Priority    models.Priority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	StartDate   *time.Time      `json:"startDate"`
	DueDate     *time.Time      `json:"dueDate"`
	AssigneeIDs []int64         `json:"assigneeIds"`
}

type moveCardRequest struct {
	CardID          int64  `json:"cardId" binding:"required"`
	TargetBoardID   int64  `json:"targetBoardId" binding:"required"`
	NewPosition     *int   `json:"newPosition" binding:"required,gte=0"`
	ExpectedVersion *int64 `json:"expectedVersion"`
}

// editCardRequest is a partial edit; absent keys are left untouched and an
// explicit null clears a date.
type editCardRequest struct {
	Title       *string             `json:"title" binding:"omitempty,max=255"`
	Description *string             `json:"description"`
	Priority    *models.Priority    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	StartDate   models.OptionalTime `json:"startDate"`
	DueDate     models.OptionalTime `json:"dueDate"`
	CompletedAt models.OptionalTime `json:"completedAt"`
	AssigneeIDs *[]int64            `json:"assigneeIds"`
}

func (s *Server) handleListCards(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	boardID, ok := parseID(c, "boardId")
	if !ok {
		return
	}

	cards, err := s.svc.ListCards(c.Request.Context(), actor(c), projectID, boardID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cards": cards})
}

func (s *Server) handleGetCard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	cardID, ok := parseID(c, "cardId")
	if !ok {
		return
	}

	card, err := s.svc.GetCard(c.Request.Context(), actor(c), projectID, cardID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, card)
}

// handleCreateCard inserts a card. The board comes from the path when the
// route has one, otherwise from the body.
func (s *Server) handleCreateCard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req createCardRequest
	if !s.bind(c, &req) {
		return
	}
	if c.Param("boardId") != "" {
		boardID, ok := parseID(c, "boardId")
		if !ok {
			return
		}
		req.BoardID = boardID
	}
	if req.BoardID <= 0 {
		s.respondError(c, apperr.Field("boardId", "is required"))
		return
	}

	card, err := s.svc.CreateCard(c.Request.Context(), actor(c), projectID, kanban.CardInput{
		BoardID:     req.BoardID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, card)
}

// handleMoveCard moves one card to a board and position.
func (s *Server) handleMoveCard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req moveCardRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.svc.MoveCard(c.Request.Context(), actor(c), projectID, kanban.MoveRequest{
		CardID:          req.CardID,
		TargetBoardID:   req.TargetBoardID,
		NewPosition:     *req.NewPosition,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	msg := "card moved"
	if !res.Moved {
		msg = "card already in place"
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": msg, "card": res.Card})
}

// handleEditCard applies a partial card edit.
func (s *Server) handleEditCard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	cardID, ok := parseID(c, "cardId")
	if !ok {
		return
	}
	var req editCardRequest
	if !s.bind(c, &req) {
		return
	}

	card, err := s.svc.EditCard(c.Request.Context(), actor(c), projectID, cardID, kanban.CardPatch{
		CardUpdate: storage.CardUpdate{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			StartDate:   req.StartDate,
			DueDate:     req.DueDate,
			CompletedAt: req.CompletedAt,
		},
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, card)
}

// handleDeleteCard soft-deletes a card.
func (s *Server) handleDeleteCard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	cardID, ok := parseID(c, "cardId")
	if !ok {
		return
	}

	if err := s.svc.DeleteCard(c.Request.Context(), actor(c), projectID, cardID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "card deleted"})
}
