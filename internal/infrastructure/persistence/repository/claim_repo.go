package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const claimColumns = `
	id, organization_id, claim_number, policy_id, client_id, client_name,
	client_email, claim_type, description, incident_date, claimed_amount, settlement_amount, status,
	status_notes, assigned_adjuster_id, investigation_complete,
	documents_complete, underwriter_approved, created_at, updated_at`

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new claim and sets its ID and timestamps
func (r *ClaimRepository) Create(ctx context.Context, c *entity.Claim) error {
	query := `
		INSERT INTO claims (
			organization_id, claim_number, policy_id, client_id, client_name,
			client_email, claim_type, description, incident_date, claimed_amount,
			settlement_amount, status, status_notes, assigned_adjuster_id,
			investigation_complete, documents_complete, underwriter_approved,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		c.OrganizationID,
		c.ClaimNumber,
		c.PolicyID,
		c.ClientID,
		c.ClientName,
		c.ClientEmail,
		c.ClaimType,
		c.Description,
		c.IncidentDate,
		c.ClaimedAmount,
		c.SettlementAmount,
		c.Status,
		c.StatusNotes,
		c.AssignedAdjusterID,
		c.InvestigationComplete,
		c.DocumentsComplete,
		c.UnderwriterApproved,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.String("claim_number", c.ClaimNumber), zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)

	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// GetByNumber retrieves a claim by its human readable number
func (r *ClaimRepository) GetByNumber(ctx context.Context, claimNumber string) (*entity.Claim, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE claim_number = ?`, claimNumber)

	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by number", zap.String("claim_number", claimNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// List retrieves claims matching the filter, newest first
func (r *ClaimRepository) List(ctx context.Context, filter entity.ClaimFilter) ([]*entity.Claim, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.OrganizationID != "" {
		where = append(where, "organization_id = ?")
		args = append(args, filter.OrganizationID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AdjusterID != "" {
		where = append(where, "assigned_adjuster_id = ?")
		args = append(args, filter.AdjusterID)
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	claims := make([]*entity.Claim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}

	return claims, rows.Err()
}

// UpdateStatus writes the new status and notes. It returns (nil, nil) when the claim is gone.
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id int64, status claim.Status, notes string) (*entity.Claim, error) {
	query := `UPDATE claims SET status = ?, status_notes = ?, updated_at = ? WHERE id = ?`
	return r.updateAndReload(ctx, id, "update claim status", query, status, notes, time.Now().UTC(), id)
}

// AssignAdjuster sets the adjuster on a claim
func (r *ClaimRepository) AssignAdjuster(ctx context.Context, id int64, adjusterID string) (*entity.Claim, error) {
	query := `UPDATE claims SET assigned_adjuster_id = ?, updated_at = ? WHERE id = ?`
	return r.updateAndReload(ctx, id, "assign adjuster", query, adjusterID, time.Now().UTC(), id)
}

// UpdateChecklist records settlement readiness fields
func (r *ClaimRepository) UpdateChecklist(ctx context.Context, id int64, checklist workflow.ClaimsWorkflowInput) (*entity.Claim, error) {
	query := `
		UPDATE claims
		SET investigation_complete = ?, documents_complete = ?, underwriter_approved = ?,
			settlement_amount = ?, updated_at = ?
		WHERE id = ?
	`
	return r.updateAndReload(ctx, id, "update claim checklist", query,
		checklist.InvestigationComplete,
		checklist.DocumentsComplete,
		checklist.UnderwriterApproved,
		checklist.SettlementAmount,
		time.Now().UTC(),
		id,
	)
}

func (r *ClaimRepository) updateAndReload(ctx context.Context, id int64, action, query string, args ...interface{}) (*entity.Claim, error) {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+action, zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Delete removes a claim
func (r *ClaimRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete claim", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	return nil
}

// NextSequence atomically increments the per-organisation yearly claim counter
func (r *ClaimRepository) NextSequence(ctx context.Context, organizationID string, year int) (int64, error) {
	query := `
		INSERT INTO claim_sequences (organization_id, year, last_value) VALUES (?, ?, 1)
		ON CONFLICT (organization_id, year) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value
	`

	var next int64
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, organizationID, year).Scan(&next); err != nil {
		r.logger.Error("Failed to allocate claim sequence",
			zap.String("organization_id", organizationID),
			zap.Int("year", year),
			zap.Error(err))
		return 0, fmt.Errorf("failed to allocate claim sequence: %w", err)
	}
	return next, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var c entity.Claim
	var incidentDate sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.OrganizationID,
		&c.ClaimNumber,
		&c.PolicyID,
		&c.ClientID,
		&c.ClientName,
		&c.ClientEmail,
		&c.ClaimType,
		&c.Description,
		&incidentDate,
		&c.ClaimedAmount,
		&c.SettlementAmount,
		&c.Status,
		&c.StatusNotes,
		&c.AssignedAdjusterID,
		&c.InvestigationComplete,
		&c.DocumentsComplete,
		&c.UnderwriterApproved,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if incidentDate.Valid {
		c.IncidentDate = &incidentDate.Time
	}
	return &c, nil
}

var _ port.ClaimRepository = (*ClaimRepository)(nil)
