package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves the runtime status for the dashboard.
type StatusHandler struct {
	Mode      string
	StartedAt time.Time
	// ActiveEvents reports the cache size; WSClients the hub population.
	// Either may be nil when the mode does not run that component.
	ActiveEvents func() int
	WSClients    func() int
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, startedAt time.Time, activeEvents, wsClients func() int) *StatusHandler {
	return &StatusHandler{
		Mode:         mode,
		StartedAt:    startedAt,
		ActiveEvents: activeEvents,
		WSClients:    wsClients,
	}
}

// GetStatus responds with the current mode, uptime and component gauges.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":           h.Mode,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	}
	if h.ActiveEvents != nil {
		body["active_events"] = h.ActiveEvents()
	}
	if h.WSClients != nil {
		body["ws_clients"] = h.WSClients()
	}
	writeJSON(w, http.StatusOK, body)
}
