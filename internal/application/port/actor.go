package port

import (
	"context"

	"github.com/garyjia/broker-workflow/internal/domain/entity"
)

type actorKey struct{}

// Actor identifies who performs an operation
type Actor struct {
	UserID string
	Role   string
}

// WithActor attaches the acting user to ctx
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the acting user, or the system actor when none is attached
func ActorFrom(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok && actor.UserID != "" {
		return actor
	}
	return Actor{UserID: entity.SystemActor}
}
