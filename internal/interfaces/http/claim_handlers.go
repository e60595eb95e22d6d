package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/broker-workflow/internal/application/service"
	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// ListClaimsRequest represents query parameters for listing claims
type ListClaimsRequest struct {
	PageRequest
	OrganizationID string `form:"organization_id"`
	Status         string `form:"status"`
	AdjusterID     string `form:"adjuster_id"`
}

// TransitionRequest is the body of POST /claims/:id/transitions
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// AssignAdjusterRequest is the body of POST /claims/:id/assign
type AssignAdjusterRequest struct {
	AdjusterID string `json:"adjuster_id"`
}

// TransitionsResponse lists the moves open to a claim
type TransitionsResponse struct {
	ClaimID       int64              `json:"claim_id"`
	CurrentStatus claim.Status       `json:"current_status"`
	Transitions   []claim.Transition `json:"transitions"`
}

// RegisterClaim handles POST /api/v1/claims
func (h *Handlers) RegisterClaim(c *gin.Context) {
	var req service.RegisterClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body", err)
		return
	}

	created, err := h.claims.RegisterClaim(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Failed to register claim", err)
		return
	}

	respondOK(c, http.StatusCreated, created)
}

// ListClaims handles GET /api/v1/claims
func (h *Handlers) ListClaims(c *gin.Context) {
	var req ListClaimsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondBadRequest(c, "invalid query parameters", err)
		return
	}
	req.normalize()

	claims, err := h.claims.ListClaims(c.Request.Context(), entity.ClaimFilter{
		OrganizationID: req.OrganizationID,
		Status:         claim.Status(req.Status),
		AdjusterID:     req.AdjusterID,
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if err != nil {
		h.respondError(c, "Failed to list claims", err)
		return
	}

	respondOK(c, http.StatusOK, claims)
}

// GetClaim handles GET /api/v1/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	found, err := h.claims.GetClaim(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get claim", err)
		return
	}

	respondOK(c, http.StatusOK, found)
}

// DeleteClaim handles DELETE /api/v1/claims/:id
func (h *Handlers) DeleteClaim(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	if err := h.claims.DeleteClaim(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete claim", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// GetAvailableTransitions handles GET /api/v1/claims/:id/transitions
func (h *Handlers) GetAvailableTransitions(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	found, err := h.claims.GetClaim(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get claim transitions", err)
		return
	}

	transitions, err := h.claims.GetAvailableTransitions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get claim transitions", err)
		return
	}

	respondOK(c, http.StatusOK, TransitionsResponse{
		ClaimID:       id,
		CurrentStatus: found.Status,
		Transitions:   transitions,
	})
}

// TransitionClaim handles POST /api/v1/claims/:id/transitions
func (h *Handlers) TransitionClaim(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "status is required", err)
		return
	}

	updated, err := h.claims.TransitionClaim(c.Request.Context(), id, claim.Status(req.Status), req.Notes)
	if err != nil {
		h.respondError(c, "Failed to update claim status", err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

// AssignAdjuster handles POST /api/v1/claims/:id/assign
func (h *Handlers) AssignAdjuster(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	var req AssignAdjusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body", err)
		return
	}

	updated, err := h.claims.AssignAdjuster(c.Request.Context(), id, req.AdjusterID)
	if err != nil {
		h.respondError(c, "Failed to assign adjuster", err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

// UpdateChecklist handles PUT /api/v1/claims/:id/checklist
func (h *Handlers) UpdateChecklist(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	var req workflow.ClaimsWorkflowInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body", err)
		return
	}

	updated, err := h.claims.UpdateChecklist(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, "Failed to update claim checklist", err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

// ValidateForSettlement handles GET /api/v1/claims/:id/readiness
func (h *Handlers) ValidateForSettlement(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	result, err := h.claims.ValidateForSettlement(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to validate claim", err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// ClaimAuditTrail handles GET /api/v1/claims/:id/audit
func (h *Handlers) ClaimAuditTrail(c *gin.Context) {
	id, ok := h.pathID(c, "claim")
	if !ok {
		return
	}

	logs, err := h.audit.History(c.Request.Context(), entity.ResourceClaim, id)
	if err != nil {
		h.respondError(c, "Failed to load audit trail", err)
		return
	}

	respondOK(c, http.StatusOK, logs)
}
