package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kanban/internal/models"
)

type projectRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type memberRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=viewer member admin"`
}

// handleListProjects returns the projects visible to the caller.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context(), actor(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project with its default boards.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if !s.bind(c, &req) {
		return
	}

	project, err := s.svc.CreateProject(c.Request.Context(), actor(c), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}

// handleBoardView returns every board of the project with its cards.
func (s *Server) handleBoardView(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	boards, err := s.svc.BoardView(c.Request.Context(), actor(c), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"boards": boards})
}

func (s *Server) handleListMembers(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	members, err := s.svc.ListMembers(c.Request.Context(), actor(c), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"members": members})
}

// handleSetMember adds a user to the project or changes its role.
func (s *Server) handleSetMember(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	var req memberRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.svc.SetMember(c.Request.Context(), actor(c), projectID, userID, req.Role); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "member saved"})
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	if err := s.svc.RemoveMember(c.Request.Context(), actor(c), projectID, userID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "member removed"})
}
