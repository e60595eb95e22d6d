// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/application/service"
)

const (
	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"
	headerRequestID = "X-Request-ID"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services are the application services exposed over HTTP
type Services struct {
	Claims        service.ClaimService
	Workflows     service.WorkflowService
	Audit         service.AuditService
	Notifications service.NotificationService
}

// HealthFunc reports component health for GET /health
type HealthFunc func(ctx context.Context) (healthy bool, details interface{})

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services. health may be nil.
func NewServer(config ServerConfig, services Services, health HealthFunc, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		handlers: NewHandlers(services, health, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(actorMiddleware())
}

// requestIDMiddleware echoes X-Request-ID, generating one when absent
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(headerRequestID),
		)
	}
}

// actorMiddleware attaches the caller named by the identity headers.
// Authentication happens upstream; these headers are trusted as given.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID != "" {
			ctx := port.WithActor(c.Request.Context(), port.Actor{
				UserID: userID,
				Role:   c.GetHeader(headerUserRole),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		// Claims
		api.POST("/claims", h.RegisterClaim)
		api.GET("/claims", h.ListClaims)
		api.GET("/claims/:id", h.GetClaim)
		api.DELETE("/claims/:id", h.DeleteClaim)
		api.GET("/claims/:id/transitions", h.GetAvailableTransitions)
		api.POST("/claims/:id/transitions", h.TransitionClaim)
		api.POST("/claims/:id/assign", h.AssignAdjuster)
		api.PUT("/claims/:id/checklist", h.UpdateChecklist)
		api.GET("/claims/:id/readiness", h.ValidateForSettlement)
		api.GET("/claims/:id/audit", h.ClaimAuditTrail)

		// Approvals
		api.POST("/approvals/check", h.CheckApproval)
		api.POST("/workflows", h.CreateWorkflow)
		api.GET("/workflows/pending", h.ListPendingWorkflows)
		api.GET("/workflows/:id", h.GetWorkflow)
		api.POST("/workflow-steps/:id/decision", h.DecideStep)

		// Notifications
		api.POST("/notifications/preview", h.PreviewNotification)
		api.POST("/notifications", h.SendNotification)
		api.GET("/notifications", h.ListNotifications)

		api.GET("/audit-logs/export", h.ExportAuditLogs)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
