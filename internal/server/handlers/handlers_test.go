package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/krishnasinghprojects/kpsyche/internal/generation"
	"github.com/krishnasinghprojects/kpsyche/internal/orchestrator"
	"github.com/krishnasinghprojects/kpsyche/internal/persona"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
	"github.com/krishnasinghprojects/kpsyche/pkg/api"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type stubGenerator struct {
	response string
}

func (g *stubGenerator) Complete(ctx context.Context, prompt string, opts generation.Options) (string, error) {
	return g.response, nil
}

// newTestMux wires the full route table over in-memory stores, a stub
// embedder, and a canned completion backend.
func newTestMux(t *testing.T, completion string) (*http.ServeMux, vectorstore.Store, *persona.FileStore) {
	t.Helper()

	store, err := vectorstore.NewChromemStoreInMemory()
	if err != nil {
		t.Fatal(err)
	}
	personas, err := persona.NewFileStore("", store)
	if err != nil {
		t.Fatal(err)
	}

	embedder := stubEmbedder{}
	engine := retrieval.NewEngine(embedder, store, 3, 0.7, true)
	gen := &stubGenerator{response: completion}

	svc, err := orchestrator.New(context.Background(), embedder, store, engine, personas, gen)
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()

	health := &HealthHandler{Store: store}
	mux.HandleFunc("GET /health", health.Health)

	analyze := &AnalyzeHandler{Service: svc}
	mux.HandleFunc("POST /v1/analyze", analyze.Analyze)

	ask := &AskHandler{Service: svc}
	mux.HandleFunc("POST /v1/ask", ask.Ask)
	mux.HandleFunc("POST /v1/ask/batch", ask.BatchAsk)

	pers := &PersonaHandler{Store: personas}
	mux.HandleFunc("POST /v1/personas", pers.Create)
	mux.HandleFunc("GET /v1/personas", pers.List)
	mux.HandleFunc("GET /v1/personas/{id}", pers.Get)
	mux.HandleFunc("DELETE /v1/personas/{id}", pers.Delete)

	mem := &MemoryHandler{Store: store}
	mux.HandleFunc("GET /v1/memories", mem.List)
	mux.HandleFunc("DELETE /v1/memories/{id}", mem.Delete)
	mux.HandleFunc("DELETE /v1/memories", mem.Clear)

	return mux, store, personas
}

func doRequest(mux *http.ServeMux, method, path, owner, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := newTestMux(t, "")

	rec := doRequest(mux, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestOwnerHeaderRequired(t *testing.T) {
	mux, _, _ := newTestMux(t, "x")

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/analyze"},
		{http.MethodPost, "/v1/ask"},
		{http.MethodPost, "/v1/personas"},
		{http.MethodGet, "/v1/memories"},
	} {
		rec := doRequest(mux, tc.method, tc.path, "", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s without owner: status = %d, want 400", tc.method, tc.path, rec.Code)
		}
		var body api.ErrorResponse
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Error.Code != "invalid_input" {
			t.Errorf("%s %s error code = %q", tc.method, tc.path, body.Error.Code)
		}
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	completion := `{"sentiment": "Positive", "personality_traits": ["Optimistic", "Confident"], "confidence": "high"}`
	mux, store, _ := newTestMux(t, completion)

	rec := doRequest(mux, http.MethodPost, "/v1/analyze", "u1",
		`{"persona_id": "p1", "text": "got the promotion today"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp api.AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Sentiment != "Positive" {
		t.Errorf("sentiment = %q", resp.Sentiment)
	}
	if !resp.RAGEnabled {
		t.Error("rag_enabled = false")
	}
	if !resp.Saved || resp.MemoryID == "" {
		t.Errorf("save defaulted off: saved=%v id=%q", resp.Saved, resp.MemoryID)
	}
	if n := store.Count(vectorstore.Filter{OwnerID: "u1"}); n != 1 {
		t.Errorf("store count = %d, want 1", n)
	}
}

func TestAnalyzeSaveOptOut(t *testing.T) {
	completion := `{"sentiment": "Neutral", "personality_traits": ["Analytical"]}`
	mux, store, _ := newTestMux(t, completion)

	rec := doRequest(mux, http.MethodPost, "/v1/analyze", "u1",
		`{"text": "just an observation", "save_to_history": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp api.AnalyzeResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Saved {
		t.Error("saved = true despite save_to_history: false")
	}
	if n := store.Count(vectorstore.Filter{OwnerID: "u1"}); n != 0 {
		t.Errorf("store count = %d, want 0", n)
	}
}

func TestAnalyzeMalformedBody(t *testing.T) {
	mux, _, _ := newTestMux(t, "x")

	rec := doRequest(mux, http.MethodPost, "/v1/analyze", "u1", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskEndpointUnknownPersona(t *testing.T) {
	mux, _, _ := newTestMux(t, "answer")

	rec := doRequest(mux, http.MethodPost, "/v1/ask", "u1",
		`{"persona_id": "ghost", "question": "who?"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body api.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error.Code != "not_found" {
		t.Errorf("error code = %q, want not_found", body.Error.Code)
	}
}

func TestPersonaLifecycle(t *testing.T) {
	mux, store, _ := newTestMux(t, "answer")
	ctx := context.Background()

	// Create
	rec := doRequest(mux, http.MethodPost, "/v1/personas", "u1",
		`{"name": "Maya", "relationship": "sister", "summary": "ER doctor"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created api.Persona
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("created persona has no ID")
	}

	// Get
	rec = doRequest(mux, http.MethodGet, "/v1/personas/"+created.ID, "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// Foreign owner must not see it.
	rec = doRequest(mux, http.MethodGet, "/v1/personas/"+created.ID, "u2", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", rec.Code)
	}

	// Seed a memory for the persona, then delete the persona.
	mem := vectorstore.Memory{OwnerID: "u1", PersonaID: created.ID, Text: "remembered"}
	if err := store.Insert(ctx, mem, []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(mux, http.MethodDelete, "/v1/personas/"+created.ID, "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if n := store.Count(vectorstore.Filter{OwnerID: "u1", PersonaID: created.ID}); n != 0 {
		t.Errorf("memories not cascaded: count = %d", n)
	}

	rec = doRequest(mux, http.MethodGet, "/v1/personas/"+created.ID, "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestMemoryEndpoints(t *testing.T) {
	mux, store, _ := newTestMux(t, "x")
	ctx := context.Background()

	mems := []vectorstore.Memory{
		{ID: "m1", OwnerID: "u1", PersonaID: "p1", Text: "one"},
		{ID: "m2", OwnerID: "u1", PersonaID: "p2", Text: "two"},
		{ID: "m3", OwnerID: "u2", PersonaID: "p1", Text: "three"},
	}
	for _, m := range mems {
		if err := store.Insert(ctx, m, []float32{1, 0, 0}); err != nil {
			t.Fatal(err)
		}
	}

	// List sees only the caller's memories.
	rec := doRequest(mux, http.MethodGet, "/v1/memories", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list api.MemoryListResponse
	json.Unmarshal(rec.Body.Bytes(), &list)
	if list.Total != 2 || len(list.Memories) != 2 {
		t.Errorf("list total = %d len = %d, want 2", list.Total, len(list.Memories))
	}

	// Persona scoping.
	rec = doRequest(mux, http.MethodGet, "/v1/memories?persona_id=p1", "u1", "")
	json.Unmarshal(rec.Body.Bytes(), &list)
	if list.Total != 1 {
		t.Errorf("scoped total = %d, want 1", list.Total)
	}

	// Delete one by ID.
	rec = doRequest(mux, http.MethodDelete, "/v1/memories/m1", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if n := store.Count(vectorstore.Filter{OwnerID: "u1"}); n != 1 {
		t.Errorf("count after delete = %d, want 1", n)
	}

	// Clear the rest; the other owner's memories stay.
	rec = doRequest(mux, http.MethodDelete, "/v1/memories", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if n := store.Count(vectorstore.Filter{OwnerID: "u1"}); n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
	if n := store.Count(vectorstore.Filter{OwnerID: "u2"}); n != 1 {
		t.Errorf("other owner count = %d, want 1", n)
	}
}

func TestBatchAskEndpoint(t *testing.T) {
	mux, _, personas := newTestMux(t, "a grounded answer")

	p, err := personas.Create(context.Background(), persona.Profile{OwnerID: "u1", Name: "Maya"})
	if err != nil {
		t.Fatal(err)
	}

	body := `{"persona_id": "` + p.ID + `", "questions": ["first?", "second?"]}`
	rec := doRequest(mux, http.MethodPost, "/v1/ask/batch", "u1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp api.BatchAskResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(resp.Answers))
	}
	for i, a := range resp.Answers {
		if !a.OK || a.Answer != "a grounded answer" {
			t.Errorf("answer %d = %+v", i, a)
		}
	}
}
