package handler

import (
	"fmt"
	"net/http"

	"github.com/cardmaker/cardmaker/internal/metrics"
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

	writeMetric(w, "cardmaker_cards_created_total %d\n", snap.CardsCreated)
	writeMetric(w, "cardmaker_cards_updated_total %d\n", snap.CardsUpdated)
	writeMetric(w, "cardmaker_cards_deleted_total %d\n", snap.CardsDeleted)

	writeMetric(w, "cardmaker_tag_reconciliations_total %d\n", snap.Reconciliations)
	writeMetric(w, "cardmaker_tags_created_total %d\n", snap.TagsCreated)

	writeMetric(w, "cardmaker_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "cardmaker_logins_total{status=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "cardmaker_logins_total{status=\"failure\"} %d\n", snap.LoginFailures)

	writeMetric(w, "cardmaker_auth_cache_hits_total %d\n", snap.AuthCacheHits)
	writeMetric(w, "cardmaker_auth_cache_misses_total %d\n", snap.AuthCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
