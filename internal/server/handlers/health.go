package handlers

import (
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

// HealthHandler reports service readiness.
type HealthHandler struct {
	Store vectorstore.Store
}

// Health handles GET /health. Degraded means the vector store failed
// its heartbeat; the service still answers, but retrieval-dependent
// paths will fail or degrade per their own policy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Heartbeat(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
