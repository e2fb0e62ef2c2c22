// Package remote exposes the session over HTTP so a phone on the gym network
// can follow the countdown and send the same controls as the terminal.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/config"
	"github.com/alkime/onerep/internal/recognition"
	"github.com/alkime/onerep/internal/session"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Session is the workout the server controls.
type Session interface {
	ApplyManual(ctl session.Control) session.Snapshot
	Snapshot() session.Snapshot
	Listen(ctx context.Context) (command.Command, error)
}

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	router  *gin.Engine
	session Session
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, sess Session) *Server {
	// Debug mode prints routes to stdout.
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// Clients connect directly on the local network.
	if err := router.SetTrustedProxies(nil); err != nil {
		logger.Warn("failed to clear trusted proxies", "error", err)
	}

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		session: sess,
	}

	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router returns the handler, for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.RemoteAddr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)

	go func() {
		s.logger.Info("Remote control listening", "addr", s.config.RemoteAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to serve remote control: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down remote control: %w", err)
		}

		return nil
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/session", s.handleSession)
		api.POST("/control/:action", s.handleControl)
		api.POST("/listen", s.handleListen)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "onerep",
	})
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, toJSON(s.session.Snapshot()))
}

type controlRequest struct {
	Exercise string `json:"exercise" form:"exercise"`
	Weight   *int   `json:"weight" form:"weight"`
	Failure  *bool  `json:"failure" form:"failure"`
}

func (s *Server) handleControl(c *gin.Context) {
	action, ok := session.ParseAction(c.Param("action"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown action: " + c.Param("action")})
		return
	}

	// The body is optional; query parameters bind the same fields.
	var req controlRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctl, err := req.control(action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("remote control", "action", action.String(), "client", c.ClientIP())

	c.JSON(http.StatusOK, toJSON(s.session.ApplyManual(ctl)))
}

func (s *Server) handleListen(c *gin.Context) {
	cmd, err := s.session.Listen(c.Request.Context())

	switch {
	case errors.Is(err, session.ErrNoListener):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, recognition.ErrUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "nothing was recognized"})
	case errors.Is(err, recognition.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		s.logger.Error("remote listen failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "capture failed"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"command":  cmd.String(),
			"kind":     cmd.Kind.String(),
			"snapshot": toJSON(s.session.Snapshot()),
		})
	}
}

func (r controlRequest) control(action session.Action) (session.Control, error) {
	ctl := session.Control{Action: action, Exercise: r.Exercise}

	switch action {
	case session.ActionStart:
		if r.Exercise == "" {
			return ctl, errors.New("exercise is required")
		}
	case session.ActionLogWeight:
		if r.Weight == nil || *r.Weight < 0 {
			return ctl, errors.New("a non-negative weight is required")
		}

		ctl.Weight = *r.Weight
	case session.ActionMarkFailure:
		ctl.Failure = r.Failure == nil || *r.Failure
	}

	return ctl, nil
}
