package persona

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
)

// Profile describes a tracked subject. The RAG core consumes profiles
// read-only as prompt context.
type Profile struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
}

// Provider resolves persona profiles. Implementations: FileStore.
type Provider interface {
	// Get returns the profile for (ownerID, personaID), or a not-found
	// error when absent.
	Get(ctx context.Context, ownerID, personaID string) (*Profile, error)
}

// ErrNotFound is returned when a persona does not exist for the owner.
var ErrNotFound = goerr.New("persona not found", goerr.T(apperr.TagNotFound))
