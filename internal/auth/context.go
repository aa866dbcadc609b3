package auth

import (
	"context"

	"github.com/apihub/apihub/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const actorContextKey contextKey = "actor"

// ContextWithActor stores the authenticated actor in the context.
func ContextWithActor(ctx context.Context, actor *model.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext retrieves the authenticated actor.
// Returns nil if the request is unauthenticated.
func ActorFromContext(ctx context.Context) *model.Actor {
	actor, ok := ctx.Value(actorContextKey).(*model.Actor)
	if !ok {
		return nil
	}
	return actor
}

// UserIDFromContext returns the actor's user ID, or an empty string.
func UserIDFromContext(ctx context.Context) string {
	if actor := ActorFromContext(ctx); actor != nil {
		return actor.ID
	}
	return ""
}
