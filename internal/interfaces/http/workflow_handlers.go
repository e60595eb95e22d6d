package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/broker-workflow/internal/application/service"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// ApprovalCheckRequest is the body of POST /approvals/check
type ApprovalCheckRequest struct {
	WorkflowType string  `json:"workflow_type"`
	Amount       float64 `json:"amount"`
	Role         string  `json:"role"`
}

// DecisionRequest is the body of POST /workflow-steps/:id/decision
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comments string `json:"comments"`
}

// ListPendingRequest represents query parameters for pending workflows
type ListPendingRequest struct {
	Role  string `form:"role"`
	Limit int    `form:"limit"`
}

// CheckApproval handles POST /api/v1/approvals/check
func (h *Handlers) CheckApproval(c *gin.Context) {
	var req ApprovalCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body", err)
		return
	}

	check, err := h.workflows.CheckApproval(workflow.Type(req.WorkflowType), req.Amount, req.Role)
	if err != nil {
		h.respondError(c, "Failed to check approval", err)
		return
	}

	respondOK(c, http.StatusOK, check)
}

// CreateWorkflow handles POST /api/v1/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req service.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body", err)
		return
	}

	created, err := h.workflows.CreateWorkflow(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Failed to create workflow", err)
		return
	}

	respondOK(c, http.StatusCreated, created)
}

// GetWorkflow handles GET /api/v1/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	id, ok := h.pathID(c, "workflow")
	if !ok {
		return
	}

	found, err := h.workflows.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get workflow", err)
		return
	}

	respondOK(c, http.StatusOK, found)
}

// ListPendingWorkflows handles GET /api/v1/workflows/pending?role=
func (h *Handlers) ListPendingWorkflows(c *gin.Context) {
	var req ListPendingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondBadRequest(c, "invalid query parameters", err)
		return
	}
	if req.Limit <= 0 || req.Limit > maxPageSize {
		req.Limit = defaultPageSize
	}

	pending, err := h.workflows.ListPending(c.Request.Context(), req.Role, req.Limit)
	if err != nil {
		h.respondError(c, "Failed to list pending workflows", err)
		return
	}

	respondOK(c, http.StatusOK, pending)
}

// DecideStep handles POST /api/v1/workflow-steps/:id/decision.
// The decider is the caller named by the identity headers.
func (h *Handlers) DecideStep(c *gin.Context) {
	id, ok := h.pathID(c, "step")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "decision is required", err)
		return
	}

	updated, err := h.workflows.DecideStep(c.Request.Context(), id, workflow.Decision(req.Decision), req.Comments)
	if err != nil {
		h.respondError(c, "Failed to record decision", err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}
