package delivery

import (
	"context"
	"fmt"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"go.uber.org/zap"
)

// Router picks a sender by notification channel
type Router struct {
	senders  map[notification.Channel]port.NotificationSender
	fallback port.NotificationSender
}

// NewRouter creates a router. Channels without a sender go to fallback.
func NewRouter(fallback port.NotificationSender) *Router {
	return &Router{
		senders:  make(map[notification.Channel]port.NotificationSender),
		fallback: fallback,
	}
}

// Route registers sender for a channel
func (r *Router) Route(channel notification.Channel, sender port.NotificationSender) *Router {
	r.senders[channel] = sender
	return r
}

// Send hands msg to the sender registered for its channel
func (r *Router) Send(ctx context.Context, msg notification.Template) (*entity.DeliveryResult, error) {
	sender, ok := r.senders[msg.Type]
	if !ok {
		sender = r.fallback
	}
	if sender == nil {
		return nil, fmt.Errorf("no sender for channel %q", msg.Type)
	}
	return sender.Send(ctx, msg)
}

// LogSender records notifications in the log instead of delivering them.
// It stands in for channels with no configured provider.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs msg and reports success
func (s *LogSender) Send(_ context.Context, msg notification.Template) (*entity.DeliveryResult, error) {
	s.logger.Info("Notification logged",
		zap.String("event", msg.Event.String()),
		zap.String("channel", string(msg.Type)),
		zap.String("priority", string(msg.Priority)),
		zap.String("subject", msg.Subject),
		zap.Strings("recipients", msg.Recipients))

	return &entity.DeliveryResult{Success: true}, nil
}

var (
	_ port.NotificationSender = (*Router)(nil)
	_ port.NotificationSender = (*LogSender)(nil)
)
