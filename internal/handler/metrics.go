package handler

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/apihub/apihub/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "apihub_actor_cache_hits_total %d\n", snap.ActorCacheHits)
	writeMetric(w, "apihub_actor_cache_misses_total %d\n", snap.ActorCacheMisses)

	writeLabeled(w, "apihub_auth_failures_total", []string{"reason"}, snap.AuthFailures)
	writeLabeled(w, "apihub_policy_denials_total", []string{"action", "reason"}, snap.PolicyDenials)
	writeLabeled(w, "apihub_rate_limited_total", []string{"scope"}, snap.RateLimited)
	writeLabeled(w, "apihub_mutations_total", []string{"resource", "op"}, snap.Mutations)
	writeLabeled(w, "apihub_notifications_dispatched_total", []string{"kind"}, snap.NotificationsSent)
	writeLabeled(w, "apihub_notifications_failed_total", []string{"kind"}, snap.NotificationsFailed)
}

// writeLabeled emits one line per key. Keys hold label values joined with "|".
func writeLabeled(w http.ResponseWriter, name string, labels []string, counter map[string]uint64) {
	keys := make([]string, 0, len(counter))
	for k := range counter {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		values := strings.SplitN(key, "|", len(labels))
		pairs := make([]string, 0, len(labels))
		for i, label := range labels {
			v := ""
			if i < len(values) {
				v = values[i]
			}
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, v))
		}
		writeMetric(w, "%s{%s} %d\n", name, strings.Join(pairs, ","), counter[key])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
