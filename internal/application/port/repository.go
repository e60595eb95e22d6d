package port

import (
	"context"

	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// ClaimRepository defines persistence operations for Claim.
// Getters return (nil, nil) when the record does not exist.
type ClaimRepository interface {
	Create(ctx context.Context, c *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	GetByNumber(ctx context.Context, claimNumber string) (*entity.Claim, error)
	List(ctx context.Context, filter entity.ClaimFilter) ([]*entity.Claim, error)
	UpdateStatus(ctx context.Context, id int64, status claim.Status, notes string) (*entity.Claim, error)
	AssignAdjuster(ctx context.Context, id int64, adjusterID string) (*entity.Claim, error)
	UpdateChecklist(ctx context.Context, id int64, checklist workflow.ClaimsWorkflowInput) (*entity.Claim, error)
	Delete(ctx context.Context, id int64) error
	NextSequence(ctx context.Context, organizationID string, year int) (int64, error)
}

// AuditLogRepository defines append-only persistence for AuditLog
type AuditLogRepository interface {
	Append(ctx context.Context, log *entity.AuditLog) error
	List(ctx context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error)
}

// WorkflowRepository defines persistence operations for workflow instances and their steps
type WorkflowRepository interface {
	Create(ctx context.Context, w *entity.WorkflowInstance) error
	GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	GetStep(ctx context.Context, stepID int64) (*entity.WorkflowStep, error)
	UpdateStep(ctx context.Context, step *entity.WorkflowStep) error
	UpdateStatus(ctx context.Context, id int64, status workflow.StepStatus) error
	ListPendingForRole(ctx context.Context, role string, limit int) ([]*entity.WorkflowInstance, error)
}

// NotificationRepository defines persistence operations for the notification outbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.NotificationRecord) error
	GetByID(ctx context.Context, id int64) (*entity.NotificationRecord, error)
	MarkSent(ctx context.Context, id int64, messageID string) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	List(ctx context.Context, limit, offset int) ([]*entity.NotificationRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
