// Package api defines the JSON wire types of the kpsyche HTTP API.
package api

import "time"

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Text          string `json:"text"`
	PersonaID     string `json:"persona_id,omitempty"`
	SaveToHistory *bool  `json:"save_to_history,omitempty"` // nil = true
}

// AnalyzeResponse is the result of an analysis run.
type AnalyzeResponse struct {
	Sentiment       string   `json:"sentiment"`
	Traits          []string `json:"personality_traits"`
	Confidence      string   `json:"confidence"`
	RAGEnabled      bool     `json:"rag_enabled"`
	ContextMemories int      `json:"context_memories"`
	Saved           bool     `json:"saved"`
	MemoryID        string   `json:"memory_id,omitempty"`
	PersistError    string   `json:"persist_error,omitempty"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	PersonaID string `json:"persona_id"`
	Question  string `json:"question"`
}

// Source is one memory an answer was grounded in.
type Source struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	Sentiment  string  `json:"sentiment,omitempty"`
	Date       string  `json:"date,omitempty"`
}

// AskResponse is a grounded free-text answer.
type AskResponse struct {
	Answer          string   `json:"answer"`
	PersonaID       string   `json:"persona_id"`
	ContextMemories int      `json:"context_memories"`
	Sources         []Source `json:"sources,omitempty"`
}

// BatchAskRequest is the body of POST /v1/ask/batch.
type BatchAskRequest struct {
	PersonaID string   `json:"persona_id"`
	Questions []string `json:"questions"`
}

// BatchAnswer is the per-question outcome of a batch run.
type BatchAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
	OK       bool   `json:"ok"`
}

// BatchAskResponse is the result of POST /v1/ask/batch.
type BatchAskResponse struct {
	Answers []BatchAnswer `json:"answers"`
}

// Persona is a persona profile on the wire.
type Persona struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatePersonaRequest is the body of POST /v1/personas.
type CreatePersonaRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Summary      string `json:"summary,omitempty"`
}

// PersonaListResponse is the result of GET /v1/personas.
type PersonaListResponse struct {
	Personas []Persona `json:"personas"`
}

// MemoryRecord is a stored memory on the wire. Embeddings are never
// exposed.
type MemoryRecord struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id,omitempty"`
	Text      string    `json:"text"`
	Sentiment string    `json:"sentiment,omitempty"`
	Traits    []string  `json:"traits,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryListResponse is the result of GET /v1/memories.
type MemoryListResponse struct {
	Memories []MemoryRecord `json:"memories"`
	Total    int            `json:"total"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
