package dispatcher

import (
	"context"

	"github.com/garyjia/broker-workflow/internal/domain/event"
)

// Publisher is the side-effect boundary services use after a successful mutation.
// Publishing never fails the caller; handler errors are logged.
type Publisher interface {
	Publish(ctx context.Context, evt *event.Event)
}

type dispatchPublisher struct {
	dispatcher Dispatcher
	async      bool
	logger     Logger
}

// NewPublisher wraps a dispatcher. With async set, handlers run in the background.
func NewPublisher(d Dispatcher, async bool, logger Logger) Publisher {
	return &dispatchPublisher{
		dispatcher: d,
		async:      async,
		logger:     logger,
	}
}

// Publish hands the event to the dispatcher
func (p *dispatchPublisher) Publish(ctx context.Context, evt *event.Event) {
	if p.async {
		p.dispatcher.DispatchAsync(ctx, evt)
		return
	}

	if err := p.dispatcher.Dispatch(ctx, evt); err != nil && p.logger != nil {
		p.logger.Error("Event handlers failed",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"resource_type", evt.ResourceType,
			"resource_id", evt.ResourceID,
			"error", err,
		)
	}
}

// NopPublisher discards events
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, *event.Event) {}
