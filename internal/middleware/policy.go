package middleware

import (
	"log/slog"
	"net/http"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/policy"
)

// RequireAction rejects requests whose actor fails the role gate of action.
// Must be applied after Auth. Ownership and self guards run in the services
// once the target is loaded.
func RequireAction(action policy.Action, logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := auth.ActorFromContext(r.Context())
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if err := policy.Allow(actor, action); err != nil {
				reason := policy.ReasonOf(err)
				logger.WarnContext(r.Context(), "access denied",
					slog.String("action", string(action)),
					slog.String("actor_id", actor.ID),
					slog.String("reason", reason),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncPolicyDenial(string(action), reason)
				writeError(w, http.StatusForbidden, "FORBIDDEN", reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route group on the admin tier.
func RequireAdmin(logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	return RequireAction(policy.ActionAdminStats, logger, recorder)
}
