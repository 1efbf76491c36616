package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/orchestrator"
	"github.com/krishnasinghprojects/kpsyche/pkg/api"
)

// AnalyzeHandler handles the analysis endpoint.
type AnalyzeHandler struct {
	Service *orchestrator.Service
}

// Analyze handles POST /v1/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req api.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	save := true
	if req.SaveToHistory != nil {
		save = *req.SaveToHistory
	}

	resp, err := h.Service.Analyze(r.Context(), orchestrator.AnalyzeRequest{
		OwnerID:       owner,
		PersonaID:     req.PersonaID,
		Text:          req.Text,
		SaveToHistory: save,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.AnalyzeResponse{
		Sentiment:       resp.Result.Sentiment,
		Traits:          resp.Result.Traits,
		Confidence:      resp.Result.Confidence,
		RAGEnabled:      resp.RAGEnabled,
		ContextMemories: resp.ContextMemories,
		Saved:           resp.Saved,
		MemoryID:        resp.MemoryID,
		PersistError:    resp.PersistError,
	})
}
