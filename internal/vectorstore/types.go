package vectorstore

import (
	"context"
	"time"
)

// MaxTextLen caps the stored text of a memory. The cap applies at storage
// time only; embedding sees the full (embedding-truncated) text.
const MaxTextLen = 2000

// Memory is one stored observation. Immutable once written: the
// (OwnerID, PersonaID) pair is fixed at creation and is the sole basis
// for retrieval filtering.
type Memory struct {
	ID        string
	OwnerID   string
	PersonaID string // empty = owner-level, not attached to a persona
	Text      string
	Sentiment string
	Traits    []string
	Kind      string // free-form type tag, e.g. "analysis"
	CreatedAt time.Time
}

// Filter selects memories by equality on the isolation keys. An empty
// PersonaID filters by owner only and matches persona-scoped and
// unscoped memories alike.
type Filter struct {
	OwnerID   string
	PersonaID string
}

// Match is a memory returned from a vector query together with its
// cosine distance to the query vector. Ephemeral, never stored.
type Match struct {
	Memory   Memory
	Distance float64
}

// Store is the vector collection interface. Implementations: ChromemStore.
type Store interface {
	// Insert writes a memory with its embedding. The memory's ID is
	// generated when empty. All vectors in one store must share
	// dimensionality; a mismatching insert fails fast.
	Insert(ctx context.Context, mem Memory, embedding []float32) error

	// Query returns the k nearest memories under the filter,
	// nearest-first, each with its distance.
	Query(ctx context.Context, vector []float32, f Filter, k int) ([]Match, error)

	// Get returns all memories matching the filter, newest first.
	Get(ctx context.Context, f Filter) ([]Memory, error)

	// Delete removes the identified memories, or every memory matching
	// the filter when no IDs are given.
	Delete(ctx context.Context, f Filter, ids ...string) error

	// Heartbeat returns nil if the store is ready to serve queries.
	Heartbeat(ctx context.Context) error

	// Count returns the number of memories matching the filter.
	Count(f Filter) int

	// Close releases resources.
	Close() error
}
