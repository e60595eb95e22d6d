package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// WorkflowRepository implements port.WorkflowRepository
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a workflow and its steps. Callers wrap it in a transaction.
func (r *WorkflowRepository) Create(ctx context.Context, w *entity.WorkflowInstance) error {
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	exec := sqlite.ExecutorFrom(ctx, r.db)

	result, err := exec.ExecContext(ctx, `
		INSERT INTO workflow_instances (
			workflow_type, resource_type, resource_id, amount,
			initiator_role, initiated_by, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.WorkflowType,
		w.ResourceType,
		w.ResourceID,
		w.Amount,
		w.InitiatorRole,
		w.InitiatedBy,
		w.Status,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow",
			zap.String("workflow_type", w.WorkflowType.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	w.ID = id

	for i := range w.Steps {
		step := &w.Steps[i]
		step.WorkflowID = id

		result, err := exec.ExecContext(ctx, `
			INSERT INTO workflow_steps (
				workflow_id, sequence, name, role_required, approval_limit,
				status, approved_by, approved_at, comments
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			step.WorkflowID,
			step.Sequence,
			step.Name,
			step.RoleRequired,
			step.ApprovalLimit,
			step.Status,
			step.ApprovedBy,
			step.ApprovedAt,
			step.Comments,
		)
		if err != nil {
			r.logger.Error("Failed to create workflow step",
				zap.Int64("workflow_id", id),
				zap.Int("sequence", step.Sequence),
				zap.Error(err))
			return fmt.Errorf("failed to create workflow step %d: %w", step.Sequence, err)
		}

		stepID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		step.ID = stepID
	}

	return nil
}

// GetByID retrieves a workflow with its steps in sequence order
func (r *WorkflowRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	var w entity.WorkflowInstance

	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, workflow_type, resource_type, resource_id, amount,
			initiator_role, initiated_by, status, created_at, updated_at
		FROM workflow_instances
		WHERE id = ?
	`, id).Scan(
		&w.ID,
		&w.WorkflowType,
		&w.ResourceType,
		&w.ResourceID,
		&w.Amount,
		&w.InitiatorRole,
		&w.InitiatedBy,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	steps, err := r.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	w.Steps = steps

	return &w, nil
}

func (r *WorkflowRepository) listSteps(ctx context.Context, workflowID int64) ([]entity.WorkflowStep, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT id, workflow_id, sequence, name, role_required, approval_limit,
			status, approved_by, approved_at, comments
		FROM workflow_steps
		WHERE workflow_id = ?
		ORDER BY sequence ASC
	`, workflowID)
	if err != nil {
		r.logger.Error("Failed to list workflow steps", zap.Int64("workflow_id", workflowID), zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow steps: %w", err)
	}
	defer rows.Close()

	steps := make([]entity.WorkflowStep, 0)
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// GetStep retrieves a single step
func (r *WorkflowRepository) GetStep(ctx context.Context, stepID int64) (*entity.WorkflowStep, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, workflow_id, sequence, name, role_required, approval_limit,
			status, approved_by, approved_at, comments
		FROM workflow_steps
		WHERE id = ?
	`, stepID)

	step, err := scanStep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow step", zap.Int64("id", stepID), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow step: %w", err)
	}
	return step, nil
}

// UpdateStep persists a step decision. Only pending rows are updated so a
// concurrent decision cannot overwrite an earlier one.
func (r *WorkflowRepository) UpdateStep(ctx context.Context, step *entity.WorkflowStep) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `
		UPDATE workflow_steps
		SET status = ?, approved_by = ?, approved_at = ?, comments = ?
		WHERE id = ? AND status = 'pending'
	`,
		step.Status,
		step.ApprovedBy,
		step.ApprovedAt,
		step.Comments,
		step.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update workflow step", zap.Int64("id", step.ID), zap.Error(err))
		return fmt.Errorf("failed to update workflow step: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: step %d", workflow.ErrStepAlreadyDecided, step.ID)
	}
	return nil
}

// UpdateStatus sets the overall workflow status
func (r *WorkflowRepository) UpdateStatus(ctx context.Context, id int64, status workflow.StepStatus) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE workflow_instances SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update workflow status",
			zap.Int64("id", id),
			zap.String("status", status.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update workflow status: %w", err)
	}
	return nil
}

// ListPendingForRole returns pending workflows whose next step awaits role.
// An empty role returns every pending workflow.
func (r *WorkflowRepository) ListPendingForRole(ctx context.Context, role string, limit int) ([]*entity.WorkflowInstance, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT wi.id
		FROM workflow_instances wi
		WHERE wi.status = 'pending'
		  AND (? = '' OR EXISTS (
			SELECT 1 FROM workflow_steps s
			WHERE s.workflow_id = wi.id
			  AND s.role_required = ?
			  AND s.sequence = (
				SELECT MIN(sequence) FROM workflow_steps
				WHERE workflow_id = wi.id AND status = 'pending'
			  )
		  ))
		ORDER BY wi.created_at ASC, wi.id ASC
		LIMIT ?
	`, role, role, limit)
	if err != nil {
		r.logger.Error("Failed to list pending workflows", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to list pending workflows: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan workflow id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before loading each workflow
	rows.Close()

	workflows := make([]*entity.WorkflowInstance, 0, len(ids))
	for _, id := range ids {
		w, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if w != nil {
			workflows = append(workflows, w)
		}
	}
	return workflows, nil
}

func scanStep(row rowScanner) (*entity.WorkflowStep, error) {
	var step entity.WorkflowStep
	var limit sql.NullFloat64
	var approvedAt sql.NullTime

	if err := row.Scan(
		&step.ID,
		&step.WorkflowID,
		&step.Sequence,
		&step.Name,
		&step.RoleRequired,
		&limit,
		&step.Status,
		&step.ApprovedBy,
		&approvedAt,
		&step.Comments,
	); err != nil {
		return nil, err
	}

	if limit.Valid {
		v := limit.Float64
		step.ApprovalLimit = &v
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		step.ApprovedAt = &t
	}
	return &step, nil
}

var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
