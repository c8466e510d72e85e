package handler

import (
	"net/http"

	"github.com/temitope-ola/ProdTalent-sub003/internal/notify"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store      *store.Store
	natsClient *notify.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st *store.Store, natsClient *notify.Client) *HealthHandler {
	return &HealthHandler{store: st, natsClient: natsClient}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || !h.store.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "document store not available",
		})
		return
	}

	// Losing the notification transport degrades sends to silent, but the
	// core still works; report it without failing readiness.
	if h.natsClient == nil || !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"note":   "notification transport not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
