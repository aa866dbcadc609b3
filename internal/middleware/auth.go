package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/service"
)

// TokenResolver turns a bearer token into the current actor.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.Actor, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver TokenResolver
	// AllowBlocked admits deactivated accounts. Used on the inbox routes so a
	// blocked user can still read why.
	AllowBlocked bool
}

// Auth authenticates requests carrying "Authorization: Bearer <token>" and
// injects the actor into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logAuthFailure(logger, r, "missing_token")
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, no token")
				return
			}

			actor, err := cfg.Resolver.ResolveToken(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrAccountBlocked) && cfg.AllowBlocked && actor != nil:
			case errors.Is(err, service.ErrAccountBlocked):
				logAuthFailure(logger, r, "account_blocked")
				writeError(w, http.StatusForbidden, "ACCOUNT_BLOCKED", "Your account has been blocked")
				return
			case errors.Is(err, service.ErrUnauthenticated):
				logAuthFailure(logger, r, "invalid_token")
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, token failed")
				return
			default:
				logger.ErrorContext(r.Context(), "token resolution failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}

			ctx := auth.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.WarnContext(r.Context(), "authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}
