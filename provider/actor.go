package provider

import (
	"context"

	"github.com/airagroup/dobee/entity"
)

type actorKey struct{}

// WithActor returns a context whose saves are blamed on actor: an entity
// or its primary key.
func WithActor(ctx context.Context, actor any) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the key of the actor carried by ctx. An entity actor
// is read when asked, so one saved after WithActor is blamed by its new key.
func ActorFrom(ctx context.Context) (any, bool) {
	actor := ctx.Value(actorKey{})
	if e, ok := actor.(entity.Entity); ok {
		actor = entity.PrimaryKey(e)
	}
	return actor, actor != nil
}
