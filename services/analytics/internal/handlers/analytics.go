// Package handlers exposes the analytics HTTP boundary:
// POST /analytics records an event, GET /analytics serves the stats triple.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/clipcast/internal/platform/api"
	"github.com/example/clipcast/internal/platform/metrics"
	"github.com/example/clipcast/services/analytics/internal/analytics"
	"github.com/example/clipcast/services/analytics/internal/identity"
)

type eventRequest struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Percent *int   `json:"percent,omitempty"`
}

type eventResponse struct {
	Success bool `json:"success"`
}

// PostEvent records one view or watch event. A request without a credential
// gets a fresh identity minted and attached to the response.
func PostEvent(svc *analytics.Service, ids identity.Resolver, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			metrics.RejectEvent()
			api.BadRequest(w, "Invalid JSON")
			return
		}
		if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Event) == "" {
			metrics.RejectEvent()
			api.BadRequest(w, "Missing data")
			return
		}

		userID := ids.Identify(w, r)

		if _, err := svc.RecordEvent(r.Context(), req.ID, req.Event, userID, req.Percent); err != nil {
			if errors.Is(err, analytics.ErrInvalidEvent) {
				metrics.RejectEvent()
				api.BadRequest(w, "Invalid event")
				return
			}
			log.Error("record event", zap.String("content_id", req.ID), zap.Error(err))
			api.Internal(w)
			return
		}

		metrics.RecordEvent(req.Event)
		api.WriteJSON(w, http.StatusOK, eventResponse{Success: true})
	}
}

// GetStats serves the aggregate stats for one clip. The identity is
// read-only here: a missing credential simply yields a 0 personal percent,
// no minting.
func GetStats(svc *analytics.Service, ids identity.Resolver, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			api.BadRequest(w, "Missing id")
			return
		}

		userID, _ := ids.Peek(r)

		stats, err := svc.GetStats(r.Context(), id, userID)
		if err != nil {
			log.Error("get stats", zap.String("content_id", id), zap.Error(err))
			api.Internal(w)
			return
		}
		api.WriteJSON(w, http.StatusOK, stats)
	}
}
