package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the provider's counters plus the handler uptime.
type StatsHandler struct {
	provider StatsProvider
	since    time.Time
}

// NewStatsHandler creates a stats handler; uptime counts from this call.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, since: time.Now()}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := maps.Clone(h.provider.GetStats())
	if out == nil {
		out = make(map[string]interface{}, 1)
	}
	out["uptimeSeconds"] = int64(time.Since(h.since).Seconds())
	writeJSON(w, http.StatusOK, out)
}
