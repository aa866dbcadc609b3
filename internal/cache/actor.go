package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apihub/apihub/internal/model"
)

const (
	actorCachePrefix = "actor:"
	actorCacheTTL    = 5 * time.Minute
)

// CachedActor is the slice of a user the auth middleware needs per request.
type CachedActor struct {
	ID       string     `json:"id"`
	Role     model.Role `json:"role"`
	IsActive bool       `json:"is_active"`
}

// NewCachedActor projects a user onto its cache entry.
func NewCachedActor(user *model.User) *CachedActor {
	return &CachedActor{ID: user.ID, Role: user.Role, IsActive: user.IsActive}
}

// Actor returns the request identity for the cached user.
func (a *CachedActor) Actor() *model.Actor {
	return &model.Actor{ID: a.ID, Role: a.Role}
}

// GetActor returns the cached entry for a user id.
// A miss, a Redis error or a corrupt entry all return nil, nil.
func (c *Cache) GetActor(ctx context.Context, userID string) (*CachedActor, error) {
	data, err := c.client.Get(ctx, actorCachePrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, nil //nolint:nilerr
	}

	var cached CachedActor
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}
	if cached.ID != userID {
		return nil, nil
	}

	return &cached, nil
}

// SetActor caches a user's role and active flag.
func (c *Cache) SetActor(ctx context.Context, actor *CachedActor) error {
	data, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("marshal actor: %w", err)
	}

	return c.client.Set(ctx, actorCachePrefix+actor.ID, data, actorCacheTTL).Err()
}

// InvalidateActor drops a user's cache entry.
// Called after role, active flag or password changes.
func (c *Cache) InvalidateActor(ctx context.Context, userID string) error {
	return c.client.Del(ctx, actorCachePrefix+userID).Err()
}
