package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
// Labeled counters are keyed by their label values joined with "|".
type Snapshot struct {
	ActorCacheHits      uint64
	ActorCacheMisses    uint64
	AuthFailures        map[string]uint64
	PolicyDenials       map[string]uint64
	RateLimited         map[string]uint64
	Mutations           map[string]uint64
	NotificationsSent   map[string]uint64
	NotificationsFailed map[string]uint64
}

// InMemoryRecorder stores metrics in memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	actorCacheHits   uint64
	actorCacheMisses uint64

	mu                  sync.Mutex
	authFailures        map[string]uint64
	policyDenials       map[string]uint64
	rateLimited         map[string]uint64
	mutations           map[string]uint64
	notificationsSent   map[string]uint64
	notificationsFailed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authFailures:        map[string]uint64{},
		policyDenials:       map[string]uint64{},
		rateLimited:         map[string]uint64{},
		mutations:           map[string]uint64{},
		notificationsSent:   map[string]uint64{},
		notificationsFailed: map[string]uint64{},
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		ActorCacheHits:      atomic.LoadUint64(&m.actorCacheHits),
		ActorCacheMisses:    atomic.LoadUint64(&m.actorCacheMisses),
		AuthFailures:        maps.Clone(m.authFailures),
		PolicyDenials:       maps.Clone(m.policyDenials),
		RateLimited:         maps.Clone(m.rateLimited),
		Mutations:           maps.Clone(m.mutations),
		NotificationsSent:   maps.Clone(m.notificationsSent),
		NotificationsFailed: maps.Clone(m.notificationsFailed),
	}
}

// IncActorCacheHit increments the actor cache hit counter.
func (m *InMemoryRecorder) IncActorCacheHit() {
	atomic.AddUint64(&m.actorCacheHits, 1)
}

// IncActorCacheMiss increments the actor cache miss counter.
func (m *InMemoryRecorder) IncActorCacheMiss() {
	atomic.AddUint64(&m.actorCacheMisses, 1)
}

// IncAuthFailure counts a rejected authentication by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.inc(m.authFailures, reason)
}

// IncPolicyDenial counts a denied action.
func (m *InMemoryRecorder) IncPolicyDenial(action, reason string) {
	m.inc(m.policyDenials, action+"|"+reason)
}

// IncRateLimited counts a throttled request.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	m.inc(m.rateLimited, scope)
}

// IncMutation counts a successful write.
func (m *InMemoryRecorder) IncMutation(resource, op string) {
	m.inc(m.mutations, resource+"|"+op)
}

// IncNotificationDispatched counts a created notification by mutation kind.
func (m *InMemoryRecorder) IncNotificationDispatched(kind string) {
	m.inc(m.notificationsSent, kind)
}

// IncNotificationDispatchFailed counts a notification that could not be stored.
func (m *InMemoryRecorder) IncNotificationDispatchFailed(kind string) {
	m.inc(m.notificationsFailed, kind)
}

func (m *InMemoryRecorder) inc(counter map[string]uint64, key string) {
	m.mu.Lock()
	counter[key]++
	m.mu.Unlock()
}
