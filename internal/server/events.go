package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleEvents streams the project's board events as server-sent events.
// Viewers and above may subscribe.
func (s *Server) handleEvents(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	if _, err := s.svc.ListBoards(c.Request.Context(), actor(c), projectID); err != nil {
		s.respondError(c, err)
		return
	}
	if s.bus == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, errorBody{Error: "event stream disabled"})
		return
	}

	select {
	case <-s.done:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody{Error: "server shutting down"})
		return
	default:
	}

	ch, cancel := s.bus.Subscribe(projectID)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"projectId": projectID})
	c.Writer.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-s.done:
			return false
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}
