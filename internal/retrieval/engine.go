package retrieval

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/internal/embedding"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

// ErrDisabled is returned when retrieval augmentation is switched off in
// configuration. It carries the unavailable tag so callers treat a
// disabled engine exactly like an unreachable store.
var ErrDisabled = goerr.New("retrieval augmentation is disabled", goerr.T(apperr.TagUnavailable))

// Match is a retrieved memory with its similarity to the query,
// nearest-first. Similarity is 1 - cosine distance, in [0,1].
type Match struct {
	Memory     vectorstore.Memory
	Similarity float64
	Distance   float64
}

// Query describes one search. PersonaID and Limit are optional; Limit
// defaults to the engine's configured limit.
type Query struct {
	OwnerID   string
	PersonaID string
	Text      string
	Limit     int
}

// Engine wraps the vector store with query embedding, owner/persona
// isolation, and similarity-threshold admission. It performs no writes
// and is safe for concurrent use.
type Engine struct {
	embedder  embedding.Embedder
	store     vectorstore.Store
	limit     int
	threshold float64
	enabled   bool
}

// NewEngine creates an Engine. limit is the default match count per
// search; threshold is the inclusive minimum similarity for admission.
func NewEngine(embedder embedding.Embedder, store vectorstore.Store, limit int, threshold float64, enabled bool) *Engine {
	return &Engine{
		embedder:  embedder,
		store:     store,
		limit:     limit,
		threshold: threshold,
		enabled:   enabled,
	}
}

// Search embeds the query text, fetches the nearest memories under the
// (owner, persona) filter, and admits only matches at or above the
// similarity threshold, preserving nearest-first order.
//
// An empty result with a nil error means "no relevant memory", a valid
// outcome, not a failure. A non-nil error means a dependency failed (or
// retrieval is disabled); the caller decides whether context is
// mandatory (Ask) or optional (Analyze).
func (e *Engine) Search(ctx context.Context, q Query) ([]Match, error) {
	if q.OwnerID == "" {
		return nil, goerr.New("search requires an owner", goerr.T(apperr.TagInvalidInput))
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, goerr.New("search requires query text", goerr.T(apperr.TagInvalidInput))
	}
	if !e.enabled {
		return nil, ErrDisabled
	}

	limit := q.Limit
	if limit <= 0 {
		limit = e.limit
	}

	vec, err := e.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, goerr.Wrap(err, "embed query")
	}

	filter := vectorstore.Filter{OwnerID: q.OwnerID, PersonaID: q.PersonaID}
	raw, err := e.store.Query(ctx, vec, filter, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "query memory store")
	}

	// The store was asked for exactly limit neighbors, so fewer than
	// limit admitted matches is expected; no backfill over-fetch.
	matches := make([]Match, 0, len(raw))
	for _, m := range raw {
		similarity := 1 - m.Distance
		if similarity < e.threshold {
			continue
		}
		matches = append(matches, Match{
			Memory:     m.Memory,
			Similarity: similarity,
			Distance:   m.Distance,
		})
	}
	return matches, nil
}

// Threshold returns the engine's admission threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}
