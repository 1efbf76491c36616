package handlers

import (
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
	"github.com/krishnasinghprojects/kpsyche/pkg/api"
)

// MemoryHandler handles memory inspection and deletion endpoints.
// Memories are only ever created by the analysis pipeline.
type MemoryHandler struct {
	Store vectorstore.Store
}

// filterFromQuery builds the owner/persona filter from the request.
// The owner always comes from the identity header; persona scoping is
// an optional query parameter.
func filterFromQuery(owner string, r *http.Request) vectorstore.Filter {
	return vectorstore.Filter{
		OwnerID:   owner,
		PersonaID: r.URL.Query().Get("persona_id"),
	}
}

// List handles GET /v1/memories.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	f := filterFromQuery(owner, r)
	mems, err := h.Store.Get(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]api.MemoryRecord, 0, len(mems))
	for _, m := range mems {
		out = append(out, api.MemoryRecord{
			ID:        m.ID,
			PersonaID: m.PersonaID,
			Text:      m.Text,
			Sentiment: m.Sentiment,
			Traits:    m.Traits,
			Kind:      m.Kind,
			CreatedAt: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, api.MemoryListResponse{
		Memories: out,
		Total:    h.Store.Count(f),
	})
}

// Delete handles DELETE /v1/memories/{id}.
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "memory ID required")
		return
	}

	if err := h.Store.Delete(r.Context(), vectorstore.Filter{OwnerID: owner}, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Clear handles DELETE /v1/memories. Bulk delete by owner, optionally
// scoped to one persona.
func (h *MemoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.Store.Delete(r.Context(), filterFromQuery(owner, r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
