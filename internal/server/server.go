package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/config"
	"github.com/krishnasinghprojects/kpsyche/internal/embedding"
	"github.com/krishnasinghprojects/kpsyche/internal/generation"
	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/orchestrator"
	"github.com/krishnasinghprojects/kpsyche/internal/persona"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

// embeddingCacheEntries bounds the in-process embedding cache.
const embeddingCacheEntries = 2048

// Server is the kpsyche HTTP API server.
type Server struct {
	cfg      *config.Config
	http     *http.Server
	store    vectorstore.Store
	personas *persona.FileStore
	service  *orchestrator.Service
}

// New wires all pipeline components and performs the startup readiness
// check. Every dependency is constructed here and injected down; none
// of the components lazily initialize shared clients.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, goerr.Wrap(err, "create data directories")
	}

	store, err := vectorstore.NewChromemStore(cfg.MemoryDir())
	if err != nil {
		return nil, goerr.Wrap(err, "open vector store")
	}

	embedClient := embedding.NewClient(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedTimeout)
	embedder, err := embedding.NewCachedEmbedder(embedClient, embeddingCacheEntries)
	if err != nil {
		return nil, goerr.Wrap(err, "create embedder")
	}

	engine := retrieval.NewEngine(embedder, store, cfg.RetrievalLimit, cfg.SimilarityThreshold, cfg.RAGEnabled)

	personas, err := persona.NewFileStore(cfg.PersonaPath(), store)
	if err != nil {
		return nil, goerr.Wrap(err, "open persona store")
	}

	generator := generation.NewClient(cfg.OllamaURL, cfg.GenModel, cfg.GenTimeout)

	service, err := orchestrator.New(ctx, embedder, store, engine, personas, generator)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		personas: personas,
		service:  service,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:    cfg.Addr(),
		Handler: withLogging(withCORS(mux)),
	}

	return s, nil
}

// Start starts the server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	logger := logging.From(ctx)

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return goerr.Wrap(err, "listen", goerr.V("addr", s.http.Addr))
	}

	logger.Info("kpsyche server listening",
		"addr", s.http.Addr,
		"data_dir", s.cfg.DataDir,
		"embed_model", s.cfg.EmbedModel,
		"gen_model", s.cfg.GenModel,
		"rag_enabled", s.cfg.RAGEnabled)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		s.store.Close()
		return nil
	case err := <-errCh:
		return err
	}
}
