package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/cache"
	"github.com/apihub/apihub/internal/metrics"
)

// RateLimiter consumes tokens from per-actor and per-address buckets.
// *cache.Cache satisfies it.
type RateLimiter interface {
	CheckActorRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Enabled bool

	// Authenticated API traffic, per actor.
	ActorRPM   int
	ActorBurst int

	// Login and registration, per client address.
	IPRPS   int
	IPBurst int
}

func (cfg RateLimitConfig) recorder() metrics.Recorder {
	if cfg.Metrics == nil {
		return metrics.NewNoop()
	}
	return cfg.Metrics
}

func (cfg RateLimitConfig) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.Default()
	}
	return cfg.Logger
}

// RateLimitActor limits authenticated requests per actor.
// Must be applied after Auth.
func RateLimitActor(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := auth.UserIDFromContext(r.Context())
			if !cfg.Enabled || actorID == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckActorRateLimit(r.Context(), actorID, cfg.ActorRPM, cfg.ActorBurst)
			if err != nil {
				cfg.logger().ErrorContext(r.Context(), "rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("actor_id", actorID),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.ActorRPM, result)
			if !result.Allowed {
				cfg.reject(w, r, "actor", result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP limits requests per client address. Used on the
// unauthenticated login and registration routes.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.IPRPS, cfg.IPBurst)
			if err != nil {
				cfg.logger().ErrorContext(r.Context(), "IP rate limit check failed",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.reject(w, r, "ip", result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (cfg RateLimitConfig) reject(w http.ResponseWriter, r *http.Request, scope string, result *cache.RateLimitResult) {
	retry := int(result.RetryAfter.Seconds())
	if retry < 1 {
		retry = 1
	}

	cfg.logger().WarnContext(r.Context(), "rate limit exceeded",
		slog.String("scope", scope),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int("retry_after_seconds", retry),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	cfg.recorder().IncRateLimited(scope)

	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retry))
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, result *cache.RateLimitResult) {
	if limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// ClientIP returns the caller address without its port. chi's RealIP
// middleware has already applied X-Forwarded-For / X-Real-IP when mounted.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
