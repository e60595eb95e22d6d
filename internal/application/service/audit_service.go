package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AuditRecorder appends audit entries without failing the caller
type AuditRecorder interface {
	Record(ctx context.Context, log *entity.AuditLog)
}

// AuditService records and queries the audit trail
type AuditService interface {
	AuditRecorder
	History(ctx context.Context, resourceType string, resourceID int64) ([]*entity.AuditLog, error)
	Query(ctx context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error)
	Export(ctx context.Context, filter entity.AuditLogFilter, w io.Writer) error
}

type auditServiceImpl struct {
	auditRepo port.AuditLogRepository
	exporter  port.AuditExporter
	logger    Logger
	now       func() time.Time
}

// NewAuditService creates a new AuditService. exporter may be nil when exports are disabled.
func NewAuditService(
	auditRepo port.AuditLogRepository,
	exporter port.AuditExporter,
	logger Logger,
) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		exporter:  exporter,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record appends an audit entry. Failures are logged and swallowed so the
// mutation that triggered them stands.
func (s *auditServiceImpl) Record(ctx context.Context, log *entity.AuditLog) {
	if log == nil {
		return
	}
	if log.Actor == "" {
		log.Actor = port.ActorFrom(ctx).UserID
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now()
	}
	if log.Severity == "" {
		log.Severity = entity.SeverityMedium
	}

	if err := s.auditRepo.Append(ctx, log); err != nil {
		s.logger.Error("Failed to append audit log",
			"error", fmt.Errorf("%w: %w", entity.ErrAuditLogging, err),
			"resource_type", log.ResourceType,
			"resource_id", log.ResourceID,
			"action", log.Action,
		)
	}
}

// History returns the audit trail of one resource, oldest first
func (s *auditServiceImpl) History(ctx context.Context, resourceType string, resourceID int64) ([]*entity.AuditLog, error) {
	return s.Query(ctx, entity.AuditLogFilter{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
}

// Query returns audit logs matching filter
func (s *auditServiceImpl) Query(ctx context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error) {
	logs, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list audit logs", "error", err, "resource_type", filter.ResourceType)
		return nil, fmt.Errorf("%w: list audit logs: %w", entity.ErrPersistence, err)
	}
	return logs, nil
}

// Export writes the matching audit logs through the configured exporter
func (s *auditServiceImpl) Export(ctx context.Context, filter entity.AuditLogFilter, w io.Writer) error {
	if s.exporter == nil {
		return fmt.Errorf("%w: audit export is not configured", entity.ErrValidation)
	}

	logs, err := s.Query(ctx, filter)
	if err != nil {
		return err
	}

	if err := s.exporter.Export(ctx, logs, w); err != nil {
		s.logger.Error("Failed to export audit logs", "error", err, "count", len(logs))
		return fmt.Errorf("export audit logs: %w", err)
	}

	s.logger.Info("Audit logs exported", "count", len(logs))
	return nil
}
