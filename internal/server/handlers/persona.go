package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/persona"
	"github.com/krishnasinghprojects/kpsyche/pkg/api"
)

// PersonaHandler handles persona CRUD endpoints.
type PersonaHandler struct {
	Store *persona.FileStore
}

func toWire(p persona.Profile) api.Persona {
	return api.Persona{
		ID:           p.ID,
		Name:         p.Name,
		Relationship: p.Relationship,
		Summary:      p.Summary,
		CreatedAt:    p.CreatedAt,
	}
}

// Create handles POST /v1/personas.
func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req api.CreatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	p, err := h.Store.Create(r.Context(), persona.Profile{
		OwnerID:      owner,
		Name:         req.Name,
		Relationship: req.Relationship,
		Summary:      req.Summary,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWire(*p))
}

// List handles GET /v1/personas.
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	profiles, err := h.Store.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]api.Persona, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toWire(p))
	}
	writeJSON(w, http.StatusOK, api.PersonaListResponse{Personas: out})
}

// Get handles GET /v1/personas/{id}.
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "persona ID required")
		return
	}

	p, err := h.Store.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWire(*p))
}

// Delete handles DELETE /v1/personas/{id}. Deleting a persona also
// removes its memories.
func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "persona ID required")
		return
	}

	if err := h.Store.Delete(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
