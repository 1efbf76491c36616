// Package orchestrator runs the request pipelines: retrieve, augment,
// generate, and (for analysis only) persist. Each call is an
// independent request-scoped run; the only shared state is the
// externally-owned vector store and completion backend.
package orchestrator

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/embedding"
	"github.com/krishnasinghprojects/kpsyche/internal/generation"
	"github.com/krishnasinghprojects/kpsyche/internal/persona"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

// Service wires the pipeline components. All dependencies are injected
// at construction; there are no lazily-initialized globals.
type Service struct {
	embedder  embedding.Embedder
	store     vectorstore.Store
	engine    *retrieval.Engine
	personas  persona.Provider
	generator generation.Generator
}

// New constructs a Service and performs the one-time readiness check
// against the vector store. A failed heartbeat means the process should
// not come up pretending to be ready.
func New(ctx context.Context, embedder embedding.Embedder, store vectorstore.Store, engine *retrieval.Engine, personas persona.Provider, generator generation.Generator) (*Service, error) {
	if err := store.Heartbeat(ctx); err != nil {
		return nil, goerr.Wrap(err, "vector store readiness check failed")
	}

	return &Service{
		embedder:  embedder,
		store:     store,
		engine:    engine,
		personas:  personas,
		generator: generator,
	}, nil
}
