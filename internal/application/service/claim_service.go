package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/dispatcher"
	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/event"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/garyjia/broker-workflow/pkg/utils"
)

// ClaimNumberFormat renders CLM-<year>-<sequence>
const ClaimNumberFormat = "CLM-%d-%06d"

// RegisterClaimRequest carries the fields of a newly reported claim
type RegisterClaimRequest struct {
	OrganizationID string     `json:"organization_id"`
	PolicyID       string     `json:"policy_id"`
	ClientID       string     `json:"client_id"`
	ClientName     string     `json:"client_name"`
	ClientEmail    string     `json:"client_email"`
	ClaimType      string     `json:"claim_type"`
	Description    string     `json:"description"`
	IncidentDate   *time.Time `json:"incident_date"`
	ClaimedAmount  float64    `json:"claimed_amount"`
}

// Validate checks the request before anything is persisted
func (r RegisterClaimRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.OrganizationID) == "":
		return errors.New("organization_id is required")
	case strings.TrimSpace(r.PolicyID) == "":
		return errors.New("policy_id is required")
	case strings.TrimSpace(r.ClientID) == "":
		return errors.New("client_id is required")
	}
	if r.ClientEmail != "" {
		if err := utils.ValidateEmail(r.ClientEmail); err != nil {
			return fmt.Errorf("client_email: %w", err)
		}
	}
	return utils.ValidateAmount(r.ClaimedAmount)
}

// ClaimService manages the claim lifecycle
type ClaimService interface {
	RegisterClaim(ctx context.Context, req RegisterClaimRequest) (*entity.Claim, error)
	GetClaim(ctx context.Context, claimID int64) (*entity.Claim, error)
	ListClaims(ctx context.Context, filter entity.ClaimFilter) ([]*entity.Claim, error)
	GetAvailableTransitions(ctx context.Context, claimID int64) ([]claim.Transition, error)
	TransitionClaim(ctx context.Context, claimID int64, newStatus claim.Status, notes string) (*entity.Claim, error)
	DeleteClaim(ctx context.Context, claimID int64) error
	AssignAdjuster(ctx context.Context, claimID int64, adjusterID string) (*entity.Claim, error)
	UpdateChecklist(ctx context.Context, claimID int64, checklist workflow.ClaimsWorkflowInput) (*entity.Claim, error)
	ValidateForSettlement(ctx context.Context, claimID int64) (*workflow.ClaimsValidation, error)
}

type claimServiceImpl struct {
	claimRepo port.ClaimRepository
	txManager port.TransactionManager
	audit     AuditRecorder
	publisher dispatcher.Publisher
	table     *claim.TransitionTable
	logger    Logger
	now       func() time.Time
}

// NewClaimService creates a new ClaimService. A nil table selects claim.DefaultTable.
func NewClaimService(
	claimRepo port.ClaimRepository,
	txManager port.TransactionManager,
	audit AuditRecorder,
	publisher dispatcher.Publisher,
	table *claim.TransitionTable,
	logger Logger,
) ClaimService {
	if table == nil {
		table = claim.DefaultTable()
	}
	if publisher == nil {
		publisher = dispatcher.NopPublisher{}
	}
	return &claimServiceImpl{
		claimRepo: claimRepo,
		txManager: txManager,
		audit:     audit,
		publisher: publisher,
		table:     table,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterClaim creates a claim in the registered status with the next claim number of its organisation
func (s *claimServiceImpl) RegisterClaim(ctx context.Context, req RegisterClaimRequest) (*entity.Claim, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	c := &entity.Claim{
		OrganizationID: strings.TrimSpace(req.OrganizationID),
		PolicyID:       strings.TrimSpace(req.PolicyID),
		ClientID:       strings.TrimSpace(req.ClientID),
		ClientName:     utils.SanitizeString(req.ClientName),
		ClientEmail:    strings.TrimSpace(req.ClientEmail),
		ClaimType:      utils.SanitizeString(req.ClaimType),
		Description:    utils.SanitizeString(req.Description),
		IncidentDate:   req.IncidentDate,
		ClaimedAmount:  req.ClaimedAmount,
		Status:         claim.StatusRegistered,
	}

	year := s.now().Year()
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		seq, err := s.claimRepo.NextSequence(txCtx, c.OrganizationID, year)
		if err != nil {
			return err
		}
		c.ClaimNumber = fmt.Sprintf(ClaimNumberFormat, year, seq)
		return s.claimRepo.Create(txCtx, c)
	})
	if err != nil {
		s.logger.Error("Failed to register claim", "error", err, "organization_id", c.OrganizationID)
		return nil, persistenceError("register claim", err)
	}

	s.logger.Info("Claim registered", "claim_id", c.ID, "claim_number", c.ClaimNumber)

	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   c.ID,
		Action:       entity.AuditActionCreate,
		NewValues: map[string]interface{}{
			"claim_number":   c.ClaimNumber,
			"status":         c.Status.String(),
			"claimed_amount": c.ClaimedAmount,
		},
		Severity: entity.SeverityLow,
	})

	s.publish(ctx, event.TypeClaimRegistered, c, nil)
	return c, nil
}

// GetClaim loads one claim
func (s *claimServiceImpl) GetClaim(ctx context.Context, claimID int64) (*entity.Claim, error) {
	return s.load(ctx, claimID)
}

// ListClaims lists claims matching filter, newest first
func (s *claimServiceImpl) ListClaims(ctx context.Context, filter entity.ClaimFilter) ([]*entity.Claim, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, validationError(fmt.Errorf("%w: %q", claim.ErrInvalidStatus, filter.Status))
	}

	claims, err := s.claimRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list claims", "error", err, "organization_id", filter.OrganizationID)
		return nil, persistenceError("list claims", err)
	}
	return claims, nil
}

// GetAvailableTransitions returns the moves allowed from the claim's current status
func (s *claimServiceImpl) GetAvailableTransitions(ctx context.Context, claimID int64) ([]claim.Transition, error) {
	c, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return s.table.Available(c.Status), nil
}

// TransitionClaim validates and applies a status change. Nothing is written
// when the move is not in the table or lacks required notes.
// Concurrent transitions are last-write-wins.
func (s *claimServiceImpl) TransitionClaim(ctx context.Context, claimID int64, newStatus claim.Status, notes string) (*entity.Claim, error) {
	current, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	transition, err := s.table.Validate(current.Status, newStatus, notes)
	if err != nil {
		s.logger.Info("Claim transition rejected",
			"claim_id", claimID,
			"from", current.Status,
			"to", newStatus,
			"reason", err.Error(),
		)
		return nil, validationError(err)
	}

	updated, err := s.claimRepo.UpdateStatus(ctx, claimID, newStatus, notes)
	if err != nil {
		s.logger.Error("Failed to update claim status", "error", err, "claim_id", claimID)
		return nil, persistenceError("update claim status", err)
	}
	if updated == nil {
		return nil, notFoundError("claim", claimID)
	}

	s.logger.Info("Claim status changed",
		"claim_id", claimID,
		"claim_number", updated.ClaimNumber,
		"from", current.Status,
		"to", updated.Status,
		"transition", transition.Label,
	)

	severity := entity.SeverityMedium
	if newStatus == claim.StatusRejected {
		severity = entity.SeverityHigh
	}
	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   claimID,
		Action:       entity.AuditActionStatusChange,
		OldValues:    map[string]interface{}{"status": current.Status.String()},
		NewValues: map[string]interface{}{
			"status": newStatus.String(),
			"notes":  notes,
		},
		Severity: severity,
	})

	s.publish(ctx, event.TypeClaimStatusChanged, updated, map[string]interface{}{
		"old_status": current.Status.String(),
		"new_status": newStatus.String(),
		"notes":      notes,
		"transition": transition.Label,
	})
	return updated, nil
}

// DeleteClaim removes a claim. A failed audit append does not undo the delete.
func (s *claimServiceImpl) DeleteClaim(ctx context.Context, claimID int64) error {
	existing, err := s.load(ctx, claimID)
	if err != nil {
		return err
	}

	if err := s.claimRepo.Delete(ctx, claimID); err != nil {
		s.logger.Error("Failed to delete claim", "error", err, "claim_id", claimID)
		return persistenceError("delete claim", err)
	}

	s.logger.Info("Claim deleted", "claim_id", claimID, "claim_number", existing.ClaimNumber)

	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   claimID,
		Action:       entity.AuditActionDelete,
		OldValues: map[string]interface{}{
			"claim_number": existing.ClaimNumber,
			"status":       existing.Status.String(),
		},
		Severity: entity.SeverityHigh,
	})

	s.publish(ctx, event.TypeClaimDeleted, existing, nil)
	return nil
}

// AssignAdjuster sets the investigating adjuster regardless of the claim's status
func (s *claimServiceImpl) AssignAdjuster(ctx context.Context, claimID int64, adjusterID string) (*entity.Claim, error) {
	adjusterID = strings.TrimSpace(adjusterID)
	if adjusterID == "" {
		return nil, validationError(errors.New("adjuster_id is required"))
	}

	current, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	updated, err := s.claimRepo.AssignAdjuster(ctx, claimID, adjusterID)
	if err != nil {
		s.logger.Error("Failed to assign adjuster", "error", err, "claim_id", claimID)
		return nil, persistenceError("assign adjuster", err)
	}
	if updated == nil {
		return nil, notFoundError("claim", claimID)
	}

	s.logger.Info("Adjuster assigned", "claim_id", claimID, "adjuster_id", adjusterID)

	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   claimID,
		Action:       entity.AuditActionAssignAdjuster,
		OldValues:    map[string]interface{}{"assigned_adjuster_id": current.AssignedAdjusterID},
		NewValues:    map[string]interface{}{"assigned_adjuster_id": adjusterID},
		Severity:     entity.SeverityLow,
	})

	s.publish(ctx, event.TypeClaimAssigned, updated, map[string]interface{}{
		"previous_adjuster_id": current.AssignedAdjusterID,
	})
	return updated, nil
}

// UpdateChecklist records the settlement readiness inputs of a claim
func (s *claimServiceImpl) UpdateChecklist(ctx context.Context, claimID int64, checklist workflow.ClaimsWorkflowInput) (*entity.Claim, error) {
	if err := utils.ValidateAmount(checklist.SettlementAmount); err != nil {
		return nil, validationError(err)
	}

	current, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	updated, err := s.claimRepo.UpdateChecklist(ctx, claimID, checklist)
	if err != nil {
		s.logger.Error("Failed to update claim checklist", "error", err, "claim_id", claimID)
		return nil, persistenceError("update claim checklist", err)
	}
	if updated == nil {
		return nil, notFoundError("claim", claimID)
	}

	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   claimID,
		Action:       entity.AuditActionChecklistUpdate,
		OldValues:    checklistValues(current.SettlementChecklist()),
		NewValues:    checklistValues(checklist),
		Severity:     entity.SeverityLow,
	})
	return updated, nil
}

// ValidateForSettlement reports what still blocks the stored claim from settlement
func (s *claimServiceImpl) ValidateForSettlement(ctx context.Context, claimID int64) (*workflow.ClaimsValidation, error) {
	c, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	result := workflow.ValidateClaimsWorkflow(c.SettlementChecklist())
	return &result, nil
}

func (s *claimServiceImpl) load(ctx context.Context, claimID int64) (*entity.Claim, error) {
	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		s.logger.Error("Failed to get claim", "error", err, "claim_id", claimID)
		return nil, persistenceError("get claim", err)
	}
	if c == nil {
		return nil, notFoundError("claim", claimID)
	}
	return c, nil
}

// publish emits a claim event carrying the fields notification templates need
func (s *claimServiceImpl) publish(ctx context.Context, eventType event.Type, c *entity.Claim, extra map[string]interface{}) {
	payload := map[string]interface{}{
		"claim_number":         c.ClaimNumber,
		"organization_id":      c.OrganizationID,
		"policy_id":            c.PolicyID,
		"client_id":            c.ClientID,
		"client_name":          c.ClientName,
		"client_email":         c.ClientEmail,
		"status":               c.Status.String(),
		"claimed_amount":       c.ClaimedAmount,
		"settlement_amount":    c.SettlementAmount,
		"assigned_adjuster_id": c.AssignedAdjusterID,
	}
	if c.IncidentDate != nil {
		payload["incident_date"] = *c.IncidentDate
	}
	for k, v := range extra {
		payload[k] = v
	}

	actor := port.ActorFrom(ctx).UserID
	s.publisher.Publish(ctx, event.NewEvent(eventType, entity.ResourceClaim, c.ID, actor, payload))
}

func checklistValues(in workflow.ClaimsWorkflowInput) map[string]interface{} {
	return map[string]interface{}{
		"investigation_complete": in.InvestigationComplete,
		"documents_complete":     in.DocumentsComplete,
		"underwriter_approved":   in.UnderwriterApproved,
		"settlement_amount":      in.SettlementAmount,
	}
}
