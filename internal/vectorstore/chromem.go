package vectorstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/philippgille/chromem-go"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/internal/embedding"
)

// ChromemStore implements Store using chromem-go, an embedded pure-Go
// vector database. All memories live in one collection; owner and
// persona isolation is enforced through metadata equality filters on
// every query and delete.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	entries    map[string]Memory
	dims       int // pinned at first insert, 0 = not yet pinned
	mu         sync.RWMutex
	persistDir string // empty for in-memory
}

// errExternalEmbedding guards against chromem ever computing an
// embedding itself: vectors are produced once at write time by the
// embedding gateway and supplied explicitly.
func errExternalEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, goerr.New("store requires externally computed embeddings")
}

// NewChromemStore creates a persistent ChromemStore under persistDir.
func NewChromemStore(persistDir string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(persistDir, false)
	if err != nil {
		return nil, goerr.Wrap(err, "create persistent DB", goerr.T(apperr.TagUnavailable))
	}

	col, err := db.GetOrCreateCollection("memories", nil, chromem.EmbeddingFunc(errExternalEmbedding))
	if err != nil {
		return nil, goerr.Wrap(err, "get or create collection", goerr.T(apperr.TagUnavailable))
	}

	s := &ChromemStore{
		db:         db,
		collection: col,
		entries:    make(map[string]Memory),
		persistDir: persistDir,
	}

	// The index may not exist yet on first start.
	if err := s.loadIndex(); err != nil {
		_ = err
	}

	return s, nil
}

// NewChromemStoreInMemory creates an in-memory ChromemStore for testing.
func NewChromemStoreInMemory() (*ChromemStore, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection("memories", nil, chromem.EmbeddingFunc(errExternalEmbedding))
	if err != nil {
		return nil, goerr.Wrap(err, "get or create collection", goerr.T(apperr.TagUnavailable))
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		entries:    make(map[string]Memory),
	}, nil
}

func (s *ChromemStore) Insert(ctx context.Context, mem Memory, vec []float32) error {
	if mem.OwnerID == "" {
		return goerr.New("memory owner must not be empty", goerr.T(apperr.TagInvalidInput))
	}
	if len(vec) == 0 {
		return goerr.New("memory embedding must not be empty", goerr.T(apperr.TagInvalidInput))
	}

	s.mu.Lock()
	if s.dims == 0 {
		s.dims = len(vec)
	} else if len(vec) != s.dims {
		s.mu.Unlock()
		return goerr.New("embedding dimensionality mismatch",
			goerr.T(apperr.TagInvalidInput),
			goerr.V("want", s.dims), goerr.V("got", len(vec)))
	}
	s.mu.Unlock()

	if mem.ID == "" {
		mem.ID = uuid.New().String()
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now().UTC()
	}
	if len(mem.Text) > MaxTextLen {
		mem.Text = embedding.TruncateTo(mem.Text, MaxTextLen)
	}

	doc := chromem.Document{
		ID:        mem.ID,
		Content:   mem.Text,
		Embedding: vec,
		Metadata: map[string]string{
			"owner_id":   mem.OwnerID,
			"persona_id": mem.PersonaID,
			"sentiment":  mem.Sentiment,
			"traits":     strings.Join(mem.Traits, ","),
			"kind":       mem.Kind,
			"created_at": mem.CreatedAt.Format(time.RFC3339),
		},
	}

	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return goerr.Wrap(err, "add document", goerr.T(apperr.TagUnavailable))
	}

	s.mu.Lock()
	s.entries[mem.ID] = mem
	s.mu.Unlock()

	s.saveIndex()
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, f Filter, k int) ([]Match, error) {
	if f.OwnerID == "" {
		return nil, goerr.New("query filter requires an owner", goerr.T(apperr.TagInvalidInput))
	}
	if k <= 0 {
		k = 3
	}

	// chromem rejects nResults above the number of matching documents,
	// so clamp against the side index before querying.
	if n := s.Count(f); n == 0 {
		return nil, nil
	} else if k > n {
		k = n
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, f.where(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "query collection", goerr.T(apperr.TagUnavailable))
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Memory:   s.memoryFromResult(r),
			Distance: 1 - float64(r.Similarity),
		})
	}
	return matches, nil
}

func (s *ChromemStore) Get(ctx context.Context, f Filter) ([]Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mems []Memory
	for _, m := range s.entries {
		if f.matches(m) {
			mems = append(mems, m)
		}
	}

	sort.Slice(mems, func(i, j int) bool {
		return mems[i].CreatedAt.After(mems[j].CreatedAt)
	})
	return mems, nil
}

func (s *ChromemStore) Delete(ctx context.Context, f Filter, ids ...string) error {
	if f.OwnerID == "" {
		return goerr.New("delete filter requires an owner", goerr.T(apperr.TagInvalidInput))
	}

	// chromem's Delete applies either the where clause or the IDs, not
	// both. Ownership of explicit IDs is checked against the index, and
	// the collection delete then runs on IDs alone.
	if len(ids) > 0 {
		s.mu.RLock()
		owned := make([]string, 0, len(ids))
		for _, id := range ids {
			if m, ok := s.entries[id]; ok && f.matches(m) {
				owned = append(owned, id)
			}
		}
		s.mu.RUnlock()

		if len(owned) == 0 {
			return nil
		}

		if err := s.collection.Delete(ctx, nil, nil, owned...); err != nil {
			return goerr.Wrap(err, "delete documents", goerr.T(apperr.TagUnavailable))
		}

		s.mu.Lock()
		for _, id := range owned {
			delete(s.entries, id)
		}
		s.mu.Unlock()

		s.saveIndex()
		return nil
	}

	if err := s.collection.Delete(ctx, f.where(), nil); err != nil {
		return goerr.Wrap(err, "delete documents", goerr.T(apperr.TagUnavailable))
	}

	s.mu.Lock()
	for id, m := range s.entries {
		if f.matches(m) {
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	s.saveIndex()
	return nil
}

func (s *ChromemStore) Heartbeat(ctx context.Context) error {
	if s.db == nil || s.collection == nil {
		return goerr.New("vector store is not initialized", goerr.T(apperr.TagUnavailable))
	}
	return nil
}

func (s *ChromemStore) Count(f Filter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.entries {
		if f.matches(m) {
			n++
		}
	}
	return n
}

func (s *ChromemStore) Close() error {
	return nil
}

// where builds the chromem metadata equality clause for the filter.
// Owner is always pinned; persona only when scoped.
func (f Filter) where() map[string]string {
	w := map[string]string{"owner_id": f.OwnerID}
	if f.PersonaID != "" {
		w["persona_id"] = f.PersonaID
	}
	return w
}

func (f Filter) matches(m Memory) bool {
	if m.OwnerID != f.OwnerID {
		return false
	}
	if f.PersonaID != "" && m.PersonaID != f.PersonaID {
		return false
	}
	return true
}

// memoryFromResult reconstructs a Memory from a chromem result, falling
// back to metadata when the side index misses (e.g. after a partial
// index write).
func (s *ChromemStore) memoryFromResult(r chromem.Result) Memory {
	s.mu.RLock()
	if m, ok := s.entries[r.ID]; ok {
		s.mu.RUnlock()
		return m
	}
	s.mu.RUnlock()

	ts, _ := time.Parse(time.RFC3339, r.Metadata["created_at"])
	var traits []string
	if t := r.Metadata["traits"]; t != "" {
		traits = strings.Split(t, ",")
	}
	return Memory{
		ID:        r.ID,
		OwnerID:   r.Metadata["owner_id"],
		PersonaID: r.Metadata["persona_id"],
		Text:      r.Content,
		Sentiment: r.Metadata["sentiment"],
		Traits:    traits,
		Kind:      r.Metadata["kind"],
		CreatedAt: ts,
	}
}

// Index persistence: simple JSON file alongside chromem data.

func (s *ChromemStore) indexPath() string {
	if s.persistDir == "" {
		return ""
	}
	return filepath.Join(s.persistDir, "memories_index.json")
}

func (s *ChromemStore) saveIndex() {
	path := s.indexPath()
	if path == "" {
		return
	}

	s.mu.RLock()
	data, err := json.Marshal(s.entries)
	s.mu.RUnlock()

	if err != nil {
		return
	}
	os.WriteFile(path, data, 0644)
}

func (s *ChromemStore) loadIndex() error {
	path := s.indexPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.entries)
}
