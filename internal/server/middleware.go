package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kanban/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	actorKey        = "actorID"
)

// requestID tags every request with an id, reusing the caller's when sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authenticate resolves the bearer token into the acting user id.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		id, err := auth.ParseToken(s.secret, strings.TrimSpace(token))
		if err != nil {
			s.logger.Debug("rejected token",
				slog.String("request_id", c.GetString(requestIDKey)),
				slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid bearer token"})
			return
		}
		c.Set(actorKey, id)
		c.Next()
	}
}

func actor(c *gin.Context) int64 {
	return c.GetInt64(actorKey)
}
