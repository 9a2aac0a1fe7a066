package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kanban/internal/kanban"
)

type createBoardRequest struct {
	Title      string `json:"title" binding:"required,max=255"`
	Position   *int   `json:"position" binding:"omitempty,gte=0"`
	IsTerminal *bool  `json:"isTerminal"`
}

type updateBoardRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=255"`
	Position   *int    `json:"position" binding:"omitempty,gte=0"`
	IsTerminal *bool   `json:"isTerminal"`
}

type reorderBoardsRequest struct {
	Boards []boardPosition `json:"boards" binding:"required,min=1,dive"`
}

type boardPosition struct {
	ID       int64 `json:"id" binding:"required"`
	Position *int  `json:"position" binding:"required,gte=0"`
}

func (s *Server) handleListBoards(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	boards, err := s.svc.ListBoards(c.Request.Context(), actor(c), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"boards": boards})
}

// handleCreateBoard inserts a board, appending it when no position is given.
func (s *Server) handleCreateBoard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req createBoardRequest
	if !s.bind(c, &req) {
		return
	}

	board, err := s.svc.CreateBoard(c.Request.Context(), actor(c), projectID, kanban.BoardInput{
		Title:      req.Title,
		Position:   req.Position,
		IsTerminal: req.IsTerminal,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, board)
}

// handleUpdateBoard renames, repositions or re-flags a board.
func (s *Server) handleUpdateBoard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	boardID, ok := parseID(c, "boardId")
	if !ok {
		return
	}
	var req updateBoardRequest
	if !s.bind(c, &req) {
		return
	}

	board, err := s.svc.UpdateBoard(c.Request.Context(), actor(c), projectID, boardID, kanban.BoardPatch{
		Title:      req.Title,
		Position:   req.Position,
		IsTerminal: req.IsTerminal,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, board)
}

// handleReorderBoards applies a full board permutation.
func (s *Server) handleReorderBoards(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req reorderBoardsRequest
	if !s.bind(c, &req) {
		return
	}

	order := make([]kanban.BoardPosition, len(req.Boards))
	for i, b := range req.Boards {
		order[i] = kanban.BoardPosition{ID: b.ID, Position: *b.Position}
	}
	if err := s.svc.ReorderBoards(c.Request.Context(), actor(c), projectID, order); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "boards reordered"})
}

// handleDeleteBoard removes a board and its cards.
func (s *Server) handleDeleteBoard(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	boardID, ok := parseID(c, "boardId")
	if !ok {
		return
	}

	if err := s.svc.DeleteBoard(c.Request.Context(), actor(c), projectID, boardID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "board deleted"})
}
