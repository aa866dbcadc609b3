// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
type Recorder interface {
	// Actor cache
	IncActorCacheHit()
	IncActorCacheMiss()

	// Access control
	IncAuthFailure(reason string)
	IncPolicyDenial(action, reason string)
	IncRateLimited(scope string) // scope: "actor" or "ip"

	// Catalog writes, e.g. ("api", "create")
	IncMutation(resource, op string)

	// Notification side effects
	IncNotificationDispatched(kind string)
	IncNotificationDispatchFailed(kind string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
