package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NotificationRequest is the body of the notification endpoints
type NotificationRequest struct {
	Event        string                 `json:"event" binding:"required"`
	Data         map[string]interface{} `json:"data"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   int64                  `json:"resource_id"`
}

// AuditExportRequest represents query parameters for the audit export
type AuditExportRequest struct {
	ResourceType string `form:"resource_type"`
	ResourceID   int64  `form:"resource_id"`
	Action       string `form:"action"`
	Limit        int    `form:"limit"`
}

// PreviewNotification handles POST /api/v1/notifications/preview
func (h *Handlers) PreviewNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "event is required", err)
		return
	}

	respondOK(c, http.StatusOK, h.notifications.Preview(notification.Event(req.Event), req.Data))
}

// SendNotification handles POST /api/v1/notifications. A delivery failure
// still answers 201; the returned row carries the FAILED status.
func (h *Handlers) SendNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "event is required", err)
		return
	}

	record, err := h.notifications.Send(c.Request.Context(),
		notification.Event(req.Event), req.Data, req.ResourceType, req.ResourceID)
	if err != nil {
		h.respondError(c, "Failed to send notification", err)
		return
	}

	respondOK(c, http.StatusCreated, record)
}

// ListNotifications handles GET /api/v1/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondBadRequest(c, "invalid query parameters", err)
		return
	}
	req.normalize()

	records, err := h.notifications.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, "Failed to list notifications", err)
		return
	}

	respondOK(c, http.StatusOK, records)
}

// ExportAuditLogs handles GET /api/v1/audit-logs/export and streams an xlsx workbook
func (h *Handlers) ExportAuditLogs(c *gin.Context) {
	var req AuditExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondBadRequest(c, "invalid query parameters", err)
		return
	}

	// Buffered so a failed export can still answer with a JSON error
	var buf bytes.Buffer
	err := h.audit.Export(c.Request.Context(), entity.AuditLogFilter{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Action:       req.Action,
		Limit:        req.Limit,
	}, &buf)
	if err != nil {
		h.respondError(c, "Failed to export audit logs", err)
		return
	}

	filename := fmt.Sprintf("audit-log-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
