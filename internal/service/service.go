package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/policy"
)

// guard runs the policy evaluator and records every denial.
type guard struct {
	logger  *slog.Logger
	metrics metrics.Recorder
}

func newGuard(logger *slog.Logger, recorder metrics.Recorder) guard {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return guard{logger: logger, metrics: recorder}
}

// allow evaluates the role gate before the target is resolved.
func (g guard) allow(ctx context.Context, actor *model.Actor, action policy.Action) error {
	return g.record(ctx, actor, action, "", policy.Allow(actor, action))
}

// authorize evaluates the target guards once the target is resolved.
func (g guard) authorize(ctx context.Context, actor *model.Actor, action policy.Action, target policy.Target) error {
	return g.record(ctx, actor, action, target.ID, policy.Authorize(actor, action, target))
}

func (g guard) record(ctx context.Context, actor *model.Actor, action policy.Action, targetID string, err error) error {
	if err == nil {
		return nil
	}

	reason := policy.ReasonOf(err)
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	g.logger.WarnContext(ctx, "access denied",
		"action", string(action),
		"actor_id", actorID,
		"target_id", targetID,
		"reason", reason,
	)
	g.metrics.IncPolicyDenial(string(action), reason)
	return err
}

func generateULID() string {
	return ulid.Make().String()
}

func now() time.Time {
	return time.Now().UTC()
}
