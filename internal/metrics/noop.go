package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncActorCacheHit()                         {}
func (n *NoopRecorder) IncActorCacheMiss()                        {}
func (n *NoopRecorder) IncAuthFailure(reason string)              {}
func (n *NoopRecorder) IncPolicyDenial(action, reason string)     {}
func (n *NoopRecorder) IncRateLimited(scope string)               {}
func (n *NoopRecorder) IncMutation(resource, op string)           {}
func (n *NoopRecorder) IncNotificationDispatched(kind string)     {}
func (n *NoopRecorder) IncNotificationDispatchFailed(kind string) {}
