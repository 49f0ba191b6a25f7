package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/service"
)

// EventHandler serves the active-event REST endpoints.
type EventHandler struct {
	svc    *service.AlertService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(svc *service.AlertService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// ListEvents returns the active set. Dismissed records are excluded unless
// ?include_dismissed=true.
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	includeDismissed := r.URL.Query().Get("include_dismissed") == "true"

	all := h.svc.Snapshot()
	events := make([]domain.ActiveEventRecord, 0, len(all))
	for _, rec := range all {
		if rec.Dismissed && !includeDismissed {
			continue
		}
		events = append(events, rec)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent returns one cached record.
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.svc.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// IngestAlert activates a new screener alert.
// POST /api/alerts
func (h *EventHandler) IngestAlert(w http.ResponseWriter, r *http.Request) {
	var alert service.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeError(w, http.StatusBadRequest, "malformed alert payload")
		return
	}

	rec, err := h.svc.Ingest(r.Context(), alert)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, rec)
	case errors.Is(err, domain.ErrPropMarket):
		writeError(w, http.StatusUnprocessableEntity, "prop and derivative markets are not tracked")
	case errors.Is(err, domain.ErrInvalidAlert):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("ingest failed",
			slog.String("event_id", alert.EventID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusBadGateway, "reference feed unavailable")
	}
}

// DismissEvent hides an event from presentation.
// POST /api/events/{id}/dismiss
func (h *EventHandler) DismissEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Dismiss(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "dismiss failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UndismissEvent returns a dismissed event to presentation.
// DELETE /api/events/{id}/dismiss
func (h *EventHandler) UndismissEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Undismiss(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "undismiss failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveEvent drops an event immediately.
// DELETE /api/events/{id}
func (h *EventHandler) RemoveEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Remove(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "remove failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// matchRequest is the body of the cross-source comparison endpoint.
type matchRequest struct {
	Left      []domain.EventSnapshot `json:"left"`
	Right     []domain.EventSnapshot `json:"right"`
	Threshold float64                `json:"threshold,omitempty"`
}

// MatchEvents correlates two event lists by fuzzy team matching.
// POST /api/events/match
func (h *EventHandler) MatchEvents(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed match payload")
		return
	}

	matches := h.svc.MatchEvents(req.Left, req.Right, req.Threshold)
	if matches == nil {
		matches = []domain.MatchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}
