package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/dispatcher"
	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/event"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// CreateWorkflowRequest describes an amount that needs approval routing
type CreateWorkflowRequest struct {
	WorkflowType  workflow.Type `json:"workflow_type"`
	Amount        float64       `json:"amount"`
	InitiatorRole string        `json:"initiator_role"`
	ResourceType  string        `json:"resource_type"`
	ResourceID    int64         `json:"resource_id"`
}

// ApprovalCheck answers whether a role may act alone on an amount
type ApprovalCheck struct {
	WorkflowType     workflow.Type `json:"workflow_type" yaml:"workflow_type"`
	Amount           float64       `json:"amount" yaml:"amount"`
	Role             string        `json:"role" yaml:"role"`
	RequiresApproval bool          `json:"requires_approval" yaml:"requires_approval"`
	NextApprover     string        `json:"next_approver,omitempty" yaml:"next_approver,omitempty"`
}

// WorkflowService routes amounts through approval pipelines
type WorkflowService interface {
	CheckApproval(workflowType workflow.Type, amount float64, role string) (*ApprovalCheck, error)
	PlanWorkflow(workflowType workflow.Type, amount float64, initiatorRole string) ([]workflow.Step, error)
	CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) (*entity.WorkflowInstance, error)
	GetWorkflow(ctx context.Context, workflowID int64) (*entity.WorkflowInstance, error)
	ListPending(ctx context.Context, role string, limit int) ([]*entity.WorkflowInstance, error)
	DecideStep(ctx context.Context, stepID int64, decision workflow.Decision, comments string) (*entity.WorkflowInstance, error)
}

type workflowServiceImpl struct {
	workflowRepo port.WorkflowRepository
	txManager    port.TransactionManager
	engine       *workflow.Engine
	audit        AuditRecorder
	publisher    dispatcher.Publisher
	logger       Logger
	now          func() time.Time
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	workflowRepo port.WorkflowRepository,
	txManager port.TransactionManager,
	engine *workflow.Engine,
	audit AuditRecorder,
	publisher dispatcher.Publisher,
	logger Logger,
) WorkflowService {
	if engine == nil {
		engine = workflow.NewEngine()
	}
	if publisher == nil {
		publisher = dispatcher.NopPublisher{}
	}
	return &workflowServiceImpl{
		workflowRepo: workflowRepo,
		txManager:    txManager,
		engine:       engine,
		audit:        audit,
		publisher:    publisher,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CheckApproval evaluates the role's ceiling and, when exceeded, who approves next
func (s *workflowServiceImpl) CheckApproval(workflowType workflow.Type, amount float64, role string) (*ApprovalCheck, error) {
	if err := workflow.ValidateRequest(workflowType, amount, role); err != nil {
		return nil, validationError(err)
	}

	check := &ApprovalCheck{
		WorkflowType:     workflowType,
		Amount:           amount,
		Role:             role,
		RequiresApproval: s.engine.RequiresApproval(workflowType, amount, role),
	}
	if check.RequiresApproval {
		check.NextApprover = s.engine.NextApprover(workflowType, amount, role)
	}
	return check, nil
}

// PlanWorkflow returns the steps CreateWorkflow would persist
func (s *workflowServiceImpl) PlanWorkflow(workflowType workflow.Type, amount float64, initiatorRole string) ([]workflow.Step, error) {
	if err := workflow.ValidateRequest(workflowType, amount, initiatorRole); err != nil {
		return nil, validationError(err)
	}
	return s.engine.PlanWorkflow(workflowType, amount, initiatorRole), nil
}

// CreateWorkflow plans and persists an approval pipeline. A pipeline with
// no steps is stored as approved.
func (s *workflowServiceImpl) CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) (*entity.WorkflowInstance, error) {
	steps, err := s.PlanWorkflow(req.WorkflowType, req.Amount, req.InitiatorRole)
	if err != nil {
		return nil, err
	}

	instance := &entity.WorkflowInstance{
		WorkflowType:  req.WorkflowType,
		ResourceType:  req.ResourceType,
		ResourceID:    req.ResourceID,
		Amount:        req.Amount,
		InitiatorRole: req.InitiatorRole,
		InitiatedBy:   port.ActorFrom(ctx).UserID,
		Status:        workflow.DeriveStatus(steps),
		Steps:         make([]entity.WorkflowStep, len(steps)),
	}
	for i, step := range steps {
		instance.Steps[i] = entity.WorkflowStep{Step: step}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.workflowRepo.Create(txCtx, instance)
	})
	if err != nil {
		s.logger.Error("Failed to create workflow", "error", err, "workflow_type", req.WorkflowType)
		return nil, persistenceError("create workflow", err)
	}

	s.logger.Info("Workflow created",
		"workflow_id", instance.ID,
		"workflow_type", instance.WorkflowType,
		"amount", instance.Amount,
		"steps", len(instance.Steps),
		"status", instance.Status,
	)

	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceWorkflow,
		ResourceID:   instance.ID,
		Action:       entity.AuditActionWorkflowCreated,
		NewValues: map[string]interface{}{
			"workflow_type":  instance.WorkflowType.String(),
			"amount":         instance.Amount,
			"initiator_role": instance.InitiatorRole,
			"steps":          len(instance.Steps),
			"status":         instance.Status.String(),
		},
		Severity: entity.SeverityMedium,
	})

	s.publish(ctx, event.TypeWorkflowCreated, instance, nil)
	return instance, nil
}

// GetWorkflow loads a workflow with its steps
func (s *workflowServiceImpl) GetWorkflow(ctx context.Context, workflowID int64) (*entity.WorkflowInstance, error) {
	instance, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		s.logger.Error("Failed to get workflow", "error", err, "workflow_id", workflowID)
		return nil, persistenceError("get workflow", err)
	}
	if instance == nil {
		return nil, notFoundError("workflow", workflowID)
	}
	return instance, nil
}

// ListPending lists pending workflows whose next step awaits role
func (s *workflowServiceImpl) ListPending(ctx context.Context, role string, limit int) ([]*entity.WorkflowInstance, error) {
	instances, err := s.workflowRepo.ListPendingForRole(ctx, role, limit)
	if err != nil {
		s.logger.Error("Failed to list pending workflows", "error", err, "role", role)
		return nil, persistenceError("list pending workflows", err)
	}
	return instances, nil
}

// DecideStep approves or rejects the next pending step of a workflow as the
// acting user. Steps are decided strictly in sequence.
func (s *workflowServiceImpl) DecideStep(ctx context.Context, stepID int64, decision workflow.Decision, comments string) (*entity.WorkflowInstance, error) {
	actor := port.ActorFrom(ctx)

	var (
		instance  *entity.WorkflowInstance
		decided   entity.WorkflowStep
		oldStatus workflow.StepStatus
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		step, err := s.workflowRepo.GetStep(txCtx, stepID)
		if err != nil {
			return persistenceError("get workflow step", err)
		}
		if step == nil {
			return notFoundError("workflow step", stepID)
		}

		instance, err = s.workflowRepo.GetByID(txCtx, step.WorkflowID)
		if err != nil {
			return persistenceError("get workflow", err)
		}
		if instance == nil {
			return notFoundError("workflow", step.WorkflowID)
		}
		oldStatus = instance.Status

		if instance.Status != workflow.StepPending {
			return validationError(fmt.Errorf("%w: workflow %d is %s", workflow.ErrWorkflowClosed, instance.ID, instance.Status))
		}

		idx := indexOfStep(instance.Steps, stepID)
		next := workflow.NextPending(instance.DomainSteps())
		if idx < 0 {
			return notFoundError("workflow step", stepID)
		}
		if idx != next {
			if instance.Steps[idx].Status.IsTerminal() {
				return validationError(fmt.Errorf("%w: step %d", workflow.ErrStepAlreadyDecided, stepID))
			}
			return validationError(fmt.Errorf("%w: step %d waits on %q", workflow.ErrStepOutOfOrder, stepID, instance.Steps[next].Name))
		}

		target := &instance.Steps[idx]
		if err := target.Decide(decision, actor.UserID, actor.Role, comments, s.now()); err != nil {
			return validationError(err)
		}

		if err := s.workflowRepo.UpdateStep(txCtx, target); err != nil {
			if errors.Is(err, workflow.ErrStepAlreadyDecided) {
				return validationError(err)
			}
			return persistenceError("update workflow step", err)
		}

		status := workflow.DeriveStatus(instance.DomainSteps())
		if status != instance.Status {
			if err := s.workflowRepo.UpdateStatus(txCtx, instance.ID, status); err != nil {
				return persistenceError("update workflow status", err)
			}
			instance.Status = status
		}

		decided = *target
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrPersistence) {
			s.logger.Error("Failed to decide workflow step", "error", err, "step_id", stepID)
		} else {
			s.logger.Info("Workflow step decision rejected", "step_id", stepID, "reason", err.Error())
		}
		return nil, err
	}

	s.logger.Info("Workflow step decided",
		"workflow_id", instance.ID,
		"step_id", stepID,
		"decision", decision,
		"actor", actor.UserID,
		"workflow_status", instance.Status,
	)

	severity := entity.SeverityMedium
	if decided.Status == workflow.StepRejected {
		severity = entity.SeverityHigh
	}
	s.audit.Record(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceWorkflow,
		ResourceID:   instance.ID,
		Action:       entity.AuditActionStepDecided,
		OldValues: map[string]interface{}{
			"step_status":     workflow.StepPending.String(),
			"workflow_status": oldStatus.String(),
		},
		NewValues: map[string]interface{}{
			"step_id":         decided.ID,
			"step":            decided.Name,
			"step_status":     decided.Status.String(),
			"comments":        decided.Comments,
			"workflow_status": instance.Status.String(),
		},
		Severity: severity,
	})

	s.publish(ctx, event.TypeWorkflowStepDecided, instance, map[string]interface{}{
		"step_id":     decided.ID,
		"step_name":   decided.Name,
		"step_status": decided.Status.String(),
		"decided_by":  decided.ApprovedBy,
	})
	return instance, nil
}

func (s *workflowServiceImpl) publish(ctx context.Context, eventType event.Type, w *entity.WorkflowInstance, extra map[string]interface{}) {
	payload := map[string]interface{}{
		"workflow_type":  w.WorkflowType.String(),
		"amount":         w.Amount,
		"status":         w.Status.String(),
		"initiator_role": w.InitiatorRole,
		"initiated_by":   w.InitiatedBy,
		"resource_type":  w.ResourceType,
		"resource_id":    w.ResourceID,
		"step_count":     len(w.Steps),
	}
	if next := workflow.NextPending(w.DomainSteps()); next >= 0 {
		payload["next_role"] = w.Steps[next].RoleRequired
		payload["next_step"] = w.Steps[next].Name
	}
	for k, v := range extra {
		payload[k] = v
	}

	actor := port.ActorFrom(ctx).UserID
	s.publisher.Publish(ctx, event.NewEvent(eventType, entity.ResourceWorkflow, w.ID, actor, payload))
}

func indexOfStep(steps []entity.WorkflowStep, stepID int64) int {
	for i := range steps {
		if steps[i].ID == stepID {
			return i
		}
	}
	return -1
}
