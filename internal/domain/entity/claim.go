package entity

import (
	"time"

	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// Claim represents a reported loss under a client's policy
type Claim struct {
	ID                    int64        `json:"id"`
	OrganizationID        string       `json:"organization_id"`
	ClaimNumber           string       `json:"claim_number"`
	PolicyID              string       `json:"policy_id"`
	ClientID              string       `json:"client_id"`
	ClientName            string       `json:"client_name,omitempty"`
	ClientEmail           string       `json:"client_email,omitempty"`
	ClaimType             string       `json:"claim_type"`
	Description           string       `json:"description"`
	IncidentDate          *time.Time   `json:"incident_date,omitempty"`
	ClaimedAmount         float64      `json:"claimed_amount"`
	SettlementAmount      float64      `json:"settlement_amount"`
	Status                claim.Status `json:"status"`
	StatusNotes           string       `json:"status_notes,omitempty"`
	AssignedAdjusterID    string       `json:"assigned_adjuster_id,omitempty"`
	InvestigationComplete bool         `json:"investigation_complete"`
	DocumentsComplete     bool         `json:"documents_complete"`
	UnderwriterApproved   bool         `json:"underwriter_approved"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// SettlementChecklist returns the claim's readiness inputs
func (c *Claim) SettlementChecklist() workflow.ClaimsWorkflowInput {
	return workflow.ClaimsWorkflowInput{
		InvestigationComplete: c.InvestigationComplete,
		DocumentsComplete:     c.DocumentsComplete,
		SettlementAmount:      c.SettlementAmount,
		UnderwriterApproved:   c.UnderwriterApproved,
	}
}

// ClaimFilter narrows claim listings
type ClaimFilter struct {
	OrganizationID string
	Status         claim.Status
	AdjusterID     string
	Limit          int
	Offset         int
}
