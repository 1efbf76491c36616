package persona

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

// FileStore keeps persona profiles in memory with JSON file persistence.
// Persona bookkeeping is a thin collaborator of the RAG core; the only
// behavior that matters to retrieval is the cascade: deleting a persona
// removes its memories from the vector store.
type FileStore struct {
	path     string // empty for in-memory (tests)
	memories vectorstore.Store
	profiles map[string]Profile // key: ownerID + "/" + personaID
	mu       sync.RWMutex
}

// NewFileStore creates a FileStore persisted at path. memories may be
// nil, in which case persona deletion does not cascade.
func NewFileStore(path string, memories vectorstore.Store) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		memories: memories,
		profiles: make(map[string]Profile),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func key(ownerID, personaID string) string {
	return ownerID + "/" + personaID
}

// Create registers a new persona for the owner.
func (s *FileStore) Create(ctx context.Context, p Profile) (*Profile, error) {
	if p.OwnerID == "" {
		return nil, goerr.New("persona owner must not be empty", goerr.T(apperr.TagInvalidInput))
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, goerr.New("persona name must not be empty", goerr.T(apperr.TagInvalidInput))
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.profiles[key(p.OwnerID, p.ID)] = p
	s.mu.Unlock()

	s.save()
	return &p, nil
}

// Get returns the profile for (ownerID, personaID).
func (s *FileStore) Get(ctx context.Context, ownerID, personaID string) (*Profile, error) {
	s.mu.RLock()
	p, ok := s.profiles[key(ownerID, personaID)]
	s.mu.RUnlock()

	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "unknown persona",
			goerr.T(apperr.TagNotFound), goerr.V("persona_id", personaID))
	}
	return &p, nil
}

// List returns the owner's personas, newest first.
func (s *FileStore) List(ctx context.Context, ownerID string) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Profile
	for _, p := range s.profiles {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a persona and cascades the removal of its memories.
func (s *FileStore) Delete(ctx context.Context, ownerID, personaID string) error {
	s.mu.Lock()
	_, ok := s.profiles[key(ownerID, personaID)]
	if ok {
		delete(s.profiles, key(ownerID, personaID))
	}
	s.mu.Unlock()

	if !ok {
		return goerr.Wrap(ErrNotFound, "unknown persona",
			goerr.T(apperr.TagNotFound), goerr.V("persona_id", personaID))
	}

	s.save()

	if s.memories != nil {
		f := vectorstore.Filter{OwnerID: ownerID, PersonaID: personaID}
		if err := s.memories.Delete(ctx, f); err != nil {
			return goerr.Wrap(err, "cascade memory delete", goerr.V("persona_id", personaID))
		}
	}
	return nil
}

func (s *FileStore) save() {
	if s.path == "" {
		return
	}

	s.mu.RLock()
	data, err := json.Marshal(s.profiles)
	s.mu.RUnlock()

	if err != nil {
		return
	}
	os.WriteFile(s.path, data, 0644)
}

func (s *FileStore) load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return goerr.Wrap(err, "read persona index")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := json.Unmarshal(data, &s.profiles); err != nil {
		return goerr.Wrap(err, "parse persona index")
	}
	return nil
}
