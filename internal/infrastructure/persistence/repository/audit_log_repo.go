package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AuditLogRepository implements port.AuditLogRepository
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes an audit record. Old and new values are stored as JSON.
func (r *AuditLogRepository) Append(ctx context.Context, log *entity.AuditLog) error {
	oldValues, err := marshalValues(log.OldValues)
	if err != nil {
		return fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := marshalValues(log.NewValues)
	if err != nil {
		return fmt.Errorf("failed to encode new values: %w", err)
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (
			resource_type, resource_id, action, old_values, new_values,
			severity, actor, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		log.ResourceType,
		log.ResourceID,
		log.Action,
		oldValues,
		newValues,
		log.Severity,
		log.Actor,
		log.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit log",
			zap.String("resource_type", log.ResourceType),
			zap.Int64("resource_id", log.ResourceID),
			zap.String("action", log.Action),
			zap.Error(err))
		return fmt.Errorf("failed to append audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// List retrieves audit records matching the filter in chronological order
func (r *AuditLogRepository) List(ctx context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ResourceType != "" {
		where = append(where, "resource_type = ?")
		args = append(args, filter.ResourceType)
	}
	if filter.ResourceID != 0 {
		where = append(where, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Since != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		where = append(where, "timestamp < ?")
		args = append(args, filter.Until.UTC())
	}

	query := `
		SELECT id, resource_type, resource_id, action, old_values, new_values,
			severity, actor, timestamp
		FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list audit logs", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*entity.AuditLog, 0)
	for rows.Next() {
		var log entity.AuditLog
		var oldValues, newValues sql.NullString

		if err := rows.Scan(
			&log.ID,
			&log.ResourceType,
			&log.ResourceID,
			&log.Action,
			&oldValues,
			&newValues,
			&log.Severity,
			&log.Actor,
			&log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		if log.OldValues, err = unmarshalValues(oldValues); err != nil {
			return nil, fmt.Errorf("failed to decode old values of audit log %d: %w", log.ID, err)
		}
		if log.NewValues, err = unmarshalValues(newValues); err != nil {
			return nil, fmt.Errorf("failed to decode new values of audit log %d: %w", log.ID, err)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func marshalValues(values map[string]interface{}) (sql.NullString, error) {
	if values == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalValues(raw sql.NullString) (map[string]interface{}, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var values map[string]interface{}
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}

var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
