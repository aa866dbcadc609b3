//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/testutil"
)

func newIntegrationCache(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, NewFromClient(client)
}

func TestIntegrationActorCache_SetGetInvalidate(t *testing.T) {
	ctx, c := newIntegrationCache(t)

	user := testutil.NewTestUser(t, model.RoleAdmin)
	if err := c.SetActor(ctx, NewCachedActor(user)); err != nil {
		t.Fatalf("SetActor failed: %v", err)
	}

	got, err := c.GetActor(ctx, user.ID)
	if err != nil || got == nil {
		t.Fatalf("GetActor() = %v, %v", got, err)
	}
	if got.Role != model.RoleAdmin || !got.IsActive {
		t.Errorf("cached = %+v", got)
	}

	if err := c.InvalidateActor(ctx, user.ID); err != nil {
		t.Fatalf("InvalidateActor failed: %v", err)
	}
	if got, _ := c.GetActor(ctx, user.ID); got != nil {
		t.Errorf("entry should be gone, got %+v", got)
	}
}

func TestIntegrationRateLimit_BurstExhaustion(t *testing.T) {
	ctx, c := newIntegrationCache(t)

	const burst = 3
	for i := 0; i < burst; i++ {
		result, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, burst)
		if err != nil || !result.Allowed {
			t.Fatalf("request %d: %+v, %v", i, result, err)
		}
	}

	result, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, burst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("request past burst should be limited")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", result.RetryAfter)
	}
}
