// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kuiperworks/kerf/internal/domain/alerts"
)

// AlertDependencies defines the interface for the alert feed.
type AlertDependencies interface {
	RecentAlerts(ctx context.Context, limit int) []alerts.Alert
}

// AlertsHandler handles alert feed requests.
type AlertsHandler struct {
	deps     AlertDependencies
	maxLimit int
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(deps AlertDependencies, maxLimit int) *AlertsHandler {
	return &AlertsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetAlerts handles GET /alerts?limit=N requests. limit is optional;
// zero means the whole retained feed.
func (h *AlertsHandler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_alerts"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", newKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.deps.RecentAlerts(r.Context(), limit))
}
