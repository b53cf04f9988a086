package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/internal/database"
	"github.com/killallgit/depthtrack-api/internal/metrics"
	"github.com/killallgit/depthtrack-api/pkg/config"
	"github.com/killallgit/depthtrack-api/pkg/logger"
)

// Server represents the HTTP server
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	cfg          *config.Config
	db           *database.DB
	rateLimiters *RateLimiters
	log          *logger.Logger

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		engine:       engine,
		cfg:          cfg,
		rateLimiters: NewRateLimiters(),
		log:          log.With("component", "http"),
		httpServer: &http.Server{
			Addr:           net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:        engine,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.ReadTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *database.DB) {
	s.db = db
	if s.dependencies == nil {
		s.dependencies = &types.Dependencies{}
	}
	s.dependencies.DB = db
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
	if deps != nil && deps.DB != nil {
		s.db = deps.DB
	}
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() error {
	if s.dependencies == nil {
		return fmt.Errorf("server dependencies are not set")
	}
	if s.dependencies.Logger == nil {
		s.dependencies.Logger = s.log
	}

	s.setupMiddleware()
	return s.setupRoutes()
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	s.engine.Use(RequestLogger(s.log))

	if s.cfg.Monitoring.Enabled {
		s.engine.Use(metrics.GinMiddleware())
	}

	if s.cfg.Security.EnableCORS {
		s.engine.Use(CORS(s.cfg.Security))
	}

	maxBody := s.cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	s.engine.Use(RequestSizeLimitWithSize(maxBody))
}

// setupRoutes delegates to the main route registration
func (s *Server) setupRoutes() error {
	return RegisterRoutes(s.engine, s.dependencies, s.cfg, s.rateLimiters)
}

// Start starts the HTTP server. It returns nil once Shutdown has been called.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiters.Stop()
	return s.httpServer.Shutdown(ctx)
}
