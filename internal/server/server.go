package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"kanban/internal/events"
	"kanban/internal/kanban"
)

// Options configures the HTTP surface.
type Options struct {
	// StaticDir holds a built frontend; empty runs the API only.
	StaticDir   string
	JWTSecret   []byte
	CORSOrigins []string
	// Heartbeat is the interval of keep-alive comments on event streams.
	Heartbeat time.Duration
}

// Server provides HTTP handlers for the kanban backend.
type Server struct {
	engine    *gin.Engine
	svc       *kanban.Service
	bus       *events.Bus
	logger    *slog.Logger
	secret    []byte
	origins   []string
	staticDir string
	heartbeat time.Duration

	// done is closed by CloseStreams to end open event streams.
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *kanban.Service, bus *events.Bus, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 25 * time.Second
	}
	useJSONFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))

	srv := &Server{
		engine:    router,
		svc:       svc,
		bus:       bus,
		logger:    logger,
		secret:    opts.JWTSecret,
		origins:   opts.CORSOrigins,
		staticDir: opts.StaticDir,
		heartbeat: opts.Heartbeat,
		done:      make(chan struct{}),
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the engine wrapped with CORS handling. Without configured
// origins the engine is returned as is.
func (s *Server) Handler() http.Handler {
	if len(s.origins) == 0 {
		return s.engine
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(s.engine)
}

// CloseStreams ends every open event stream and refuses new ones.
// http.Server.Shutdown does not cancel request contexts, so register it with
// RegisterOnShutdown.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.done) })
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		projects := api.Group("/projects", s.authenticate())
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":projectId", s.handleBoardView)
			projects.GET(":projectId/events", s.handleEvents)

			projects.GET(":projectId/members", s.handleListMembers)
			projects.PUT(":projectId/members/:userId", s.handleSetMember)
			projects.DELETE(":projectId/members/:userId", s.handleRemoveMember)

			projects.GET(":projectId/boards", s.handleListBoards)
			projects.POST(":projectId/boards", s.handleCreateBoard)
			projects.PUT(":projectId/boards", s.handleReorderBoards)
			projects.PUT(":projectId/boards/:boardId", s.handleUpdateBoard)
			projects.DELETE(":projectId/boards/:boardId", s.handleDeleteBoard)
			projects.GET(":projectId/boards/:boardId/cards", s.handleListCards)
			projects.POST(":projectId/boards/:boardId/cards", s.handleCreateCard)

			projects.POST(":projectId/cards", s.handleCreateCard)
			projects.PUT(":projectId/cards", s.handleMoveCard)
			projects.GET(":projectId/cards/:cardId", s.handleGetCard)
			projects.PUT(":projectId/cards/:cardId", s.handleEditCard)
			projects.DELETE(":projectId/cards/:cardId", s.handleDeleteCard)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
			Error:  "invalid identifier",
			Fields: map[string]string{name: "must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

// respondSuccess writes payload as JSON, or only the status when it is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
