// Package web serves the PaperTrail HTTP API over gin: auth, paper
// CRUD, hybrid search, tags, profiles, and RSS feeds.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papertrail-app/papertrail/internal/async"
	"github.com/papertrail-app/papertrail/internal/auth"
	"github.com/papertrail-app/papertrail/internal/config"
	"github.com/papertrail-app/papertrail/internal/search"
	"github.com/papertrail-app/papertrail/internal/store"
	"github.com/papertrail-app/papertrail/internal/telemetry"
	"github.com/papertrail-app/papertrail/pkg/version"
)

// sessionCookie is the session token cookie name.
const sessionCookie = "papertrail_session"

// Server is the HTTP API server.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	engine  *search.Engine
	worker  *async.Worker
	metrics *telemetry.Metrics
	tokens  *auth.Manager
	logger  *slog.Logger

	router *gin.Engine
	http   *http.Server
}

// Dependencies holds everything the server serves from.
type Dependencies struct {
	Store   *store.Store
	Engine  *search.Engine
	Worker  *async.Worker
	Metrics *telemetry.Metrics
	Tokens  *auth.Manager
	Logger  *slog.Logger
}

// New creates a server with routes and middleware wired.
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Store == nil || deps.Engine == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("store, engine, and token manager are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		store:   deps.Store,
		engine:  deps.Engine,
		worker:  deps.Worker,
		metrics: deps.Metrics,
		tokens:  deps.Tokens,
		logger:  deps.Logger,
		router:  gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	if s.cfg.Server.RateLimitPerMinute > 0 {
		s.router.Use(rateLimitMiddleware(s.cfg.Server.RateLimitPerMinute))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.Use(s.sessionMiddleware())

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/logout", s.handleLogout)
		authGroup.GET("/me", s.requireAuth(), s.handleMe)
	}

	papers := api.Group("/papers")
	{
		papers.GET("", s.handleListPapers)
		papers.GET("/:id", s.handleGetPaper)
		papers.POST("", s.requireAuth(), s.handleCreatePaper)
		papers.PUT("/:id", s.requireAuth(), s.handleUpdatePaper)
		papers.DELETE("/:id", s.requireAuth(), s.handleDeletePaper)
	}

	api.GET("/search", s.handleSearch)

	tags := api.Group("/tags", s.requireAuth())
	{
		tags.GET("", s.handleListTags)
		tags.GET("/autocomplete", s.handleAutocompleteTags)
	}

	users := api.Group("/users")
	{
		users.GET("/:username", s.handleGetProfile)
		users.GET("/:username/papers", s.handleUserPapers)
		users.GET("/:username/activity", s.handleActivity)
		users.GET("/:username/feed.xml", s.handleFeed)
	}

	api.GET("/status", s.handleStatus)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr, "version", version.Version)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}

func (s *Server) handleStatus(c *gin.Context) {
	papers, embeddings, err := s.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	status := gin.H{
		"version":    version.Version,
		"papers":     papers,
		"embeddings": embeddings,
		"time":       time.Now().UTC().Format(time.RFC3339),
	}
	if s.worker != nil {
		status["worker"] = s.worker.Progress().Snapshot()
	}
	if s.metrics != nil {
		status["search"] = s.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, status)
}
