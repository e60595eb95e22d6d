package port

import (
	"context"
	"io"

	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
)

// NotificationSender delivers a rendered notification to its recipients
type NotificationSender interface {
	Send(ctx context.Context, msg notification.Template) (*entity.DeliveryResult, error)
}

// AuditExporter writes audit logs as a spreadsheet
type AuditExporter interface {
	Export(ctx context.Context, logs []*entity.AuditLog, w io.Writer) error
	ContentType() string
	FileExtension() string
}
