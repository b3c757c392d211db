package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/orgbase/orgbase/internal/metrics"
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
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "orgbase_company_updates_total %d\n", snap.CompanyUpdated)
	writeMetric(w, "orgbase_subscription_conflicts_total %d\n", snap.SubscriptionConflict)

	// Deterministic output order for scrapers and tests.
	plans := make([]string, 0, len(snap.SubscriptionUpdated))
	for plan := range snap.SubscriptionUpdated {
		plans = append(plans, plan)
	}
	sort.Strings(plans)
	for _, plan := range plans {
		writeMetric(w, "orgbase_subscription_updates_total{plan=%q} %d\n", plan, snap.SubscriptionUpdated[plan])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
