package server

import (
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/server/handlers"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health
	health := &handlers.HealthHandler{Store: s.store}
	mux.HandleFunc("GET /health", health.Health)

	// RAG pipeline
	analyze := &handlers.AnalyzeHandler{Service: s.service}
	mux.HandleFunc("POST /v1/analyze", analyze.Analyze)

	ask := &handlers.AskHandler{Service: s.service}
	mux.HandleFunc("POST /v1/ask", ask.Ask)
	mux.HandleFunc("POST /v1/ask/batch", ask.BatchAsk)

	// Personas
	pers := &handlers.PersonaHandler{Store: s.personas}
	mux.HandleFunc("POST /v1/personas", pers.Create)
	mux.HandleFunc("GET /v1/personas", pers.List)
	mux.HandleFunc("GET /v1/personas/{id}", pers.Get)
	mux.HandleFunc("DELETE /v1/personas/{id}", pers.Delete)

	// Memories
	mem := &handlers.MemoryHandler{Store: s.store}
	mux.HandleFunc("GET /v1/memories", mem.List)
	mux.HandleFunc("DELETE /v1/memories/{id}", mem.Delete)
	mux.HandleFunc("DELETE /v1/memories", mem.Clear)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.From(r.Context()).Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Owner-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
