package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/orchestrator"
	"github.com/krishnasinghprojects/kpsyche/pkg/api"
)

// AskHandler handles the question endpoints.
type AskHandler struct {
	Service *orchestrator.Service
}

// Ask handles POST /v1/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req api.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	resp, err := h.Service.Ask(r.Context(), orchestrator.AskRequest{
		OwnerID:   owner,
		PersonaID: req.PersonaID,
		Question:  req.Question,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	sources := make([]api.Source, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		sources = append(sources, api.Source{
			Text:       s.Text,
			Similarity: s.Similarity,
			Sentiment:  s.Sentiment,
			Date:       s.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, api.AskResponse{
		Answer:          resp.Answer,
		PersonaID:       resp.PersonaID,
		ContextMemories: resp.ContextMemories,
		Sources:         sources,
	})
}

// BatchAsk handles POST /v1/ask/batch.
func (h *AskHandler) BatchAsk(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req api.BatchAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	answers, err := h.Service.BatchAsk(r.Context(), owner, req.PersonaID, req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]api.BatchAnswer, 0, len(answers))
	for _, a := range answers {
		out = append(out, api.BatchAnswer{
			Question: a.Question,
			Answer:   a.Answer,
			Error:    a.Error,
			OK:       a.OK,
		})
	}

	writeJSON(w, http.StatusOK, api.BatchAskResponse{Answers: out})
}
