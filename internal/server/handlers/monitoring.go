package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	derrors "github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/server/responses"
)

// MonitoringHandlers serves the liveness probe and the audit event feed.
type MonitoringHandlers struct {
	adapter   *derrors.HTTPErrorAdapter
	events    eventstore.Store
	version   string
	startTime time.Time
}

// NewMonitoringHandlers wires the monitoring endpoints.
func NewMonitoringHandlers(adapter *derrors.HTTPErrorAdapter, events eventstore.Store, version string) *MonitoringHandlers {
	return &MonitoringHandlers{
		adapter:   adapter,
		events:    events,
		version:   version,
		startTime: time.Now(),
	}
}

// Health handles GET /healthz.
func (h *MonitoringHandlers) Health(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, responses.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Seconds(),
	})
}

// Events handles GET /api/events. The optional limit query parameter caps the
// number of returned entries (default 50).
func (h *MonitoringHandlers) Events(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.adapter.WriteErrorResponse(w, r, derrors.ValidationError("limit must be a positive integer").Build())
			return
		}
		limit = n
	}

	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r,
			derrors.WrapError(err, derrors.CategoryInternal, "load audit events").Build())
		return
	}
	if events == nil {
		events = []eventstore.Event{}
	}

	_ = writeJSON(w, http.StatusOK, responses.EventsResponse{Success: true, Events: events})
}
