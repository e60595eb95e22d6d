package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const notificationColumns = `
	id, event_name, channel, subject, body, recipients, priority, status,
	message_id, error_message, resource_type, resource_id, sent_at,
	created_at, updated_at`

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an outbox record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.NotificationRecord) error {
	recipients, err := json.Marshal(n.Recipients)
	if err != nil {
		return fmt.Errorf("failed to encode recipients: %w", err)
	}
	if n.Recipients == nil {
		recipients = []byte("[]")
	}

	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `
		INSERT INTO notifications (
			event_name, channel, subject, body, recipients, priority, status,
			message_id, error_message, resource_type, resource_id, sent_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.EventName,
		n.Channel,
		n.Subject,
		n.Body,
		string(recipients),
		n.Priority,
		n.Status,
		n.MessageID,
		n.ErrorMessage,
		n.ResourceType,
		n.ResourceID,
		n.SentAt,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("event_name", n.EventName),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetByID retrieves an outbox record
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*entity.NotificationRecord, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)

	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get notification", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// MarkSent marks notification as sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, messageID string) error {
	now := time.Now().UTC()
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, message_id = ?, error_message = '', sent_at = ?, updated_at = ?
		WHERE id = ?
	`, entity.NotificationStatusSent, messageID, now, now, id)
	if err != nil {
		r.logger.Error("Failed to mark notification as sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`, entity.NotificationStatusFailed, errMsg, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification as failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark failed: %w", err)
	}
	return nil
}

// List retrieves outbox records, newest first
func (r *NotificationRepository) List(ctx context.Context, limit, offset int) ([]*entity.NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.NotificationRecord, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		records = append(records, n)
	}
	return records, rows.Err()
}

func scanNotification(row rowScanner) (*entity.NotificationRecord, error) {
	var n entity.NotificationRecord
	var recipients string
	var sentAt sql.NullTime

	if err := row.Scan(
		&n.ID,
		&n.EventName,
		&n.Channel,
		&n.Subject,
		&n.Body,
		&recipients,
		&n.Priority,
		&n.Status,
		&n.MessageID,
		&n.ErrorMessage,
		&n.ResourceType,
		&n.ResourceID,
		&sentAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(recipients), &n.Recipients); err != nil {
		return nil, fmt.Errorf("failed to decode recipients: %w", err)
	}
	if sentAt.Valid {
		n.SentAt = &sentAt.Time
	}
	return &n, nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
