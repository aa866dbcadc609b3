//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/cache"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/testutil"
)

func TestIntegrationRateLimitActorConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	opt, err := redis.ParseURL(testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	const burst = 5
	handler := RateLimitActor(RateLimitConfig{
		Logger:     discardLogger(),
		Limiter:    cache.NewFromClient(client),
		Enabled:    true,
		ActorRPM:   1,
		ActorBurst: burst,
	})(okHandler())

	actor := &model.Actor{ID: testutil.UniqueID(), Role: model.RoleDeveloper}
	var allowed, rejected int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/apis", nil)
			req = req.WithContext(auth.ContextWithActor(req.Context(), actor))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			switch w.Code {
			case http.StatusOK:
				atomic.AddInt64(&allowed, 1)
			case http.StatusTooManyRequests:
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != burst {
		t.Errorf("allowed = %d, want %d", allowed, burst)
	}
	if allowed+rejected != 20 {
		t.Errorf("allowed + rejected = %d, want 20", allowed+rejected)
	}
}
