package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/broker-workflow/internal/application/service"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claims        service.ClaimService
	workflows     service.WorkflowService
	audit         service.AuditService
	notifications service.NotificationService
	health        HealthFunc
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthFunc, logger Logger) *Handlers {
	return &Handlers{
		claims:        services.Claims,
		workflows:     services.Workflows,
		audit:         services.Audit,
		notifications: services.Notifications,
		health:        health,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// PageRequest represents paging query parameters
type PageRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (p *PageRequest) normalize() {
	if p.Limit <= 0 || p.Limit > maxPageSize {
		p.Limit = defaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.health != nil {
		healthy, details := h.health(c.Request.Context())
		response.Components = details
		if !healthy {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// respondOK writes a success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondBadRequest rejects malformed input that never reached a service
func (h *Handlers) respondBadRequest(c *gin.Context, message string, err error) {
	h.logger.Warn("Bad request", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

// respondError maps service errors onto status codes. Validation messages are
// returned to the caller; anything unexpected gets the generic action message.
func (h *Handlers) respondError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		h.logger.Warn(action+" rejected", "error", err)
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error(action, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: action})
	}
}

// pathID parses the :id path parameter
func (h *Handlers) pathID(c *gin.Context, resource string) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.respondBadRequest(c, "invalid "+resource+" ID", err)
		return 0, false
	}
	return id, true
}
