package embedding

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"
)

// CachedEmbedder wraps an Embedder with an in-process ristretto cache.
// Embeddings are deterministic for a given model and text, so serving a
// repeated query from cache is transparent to retrieval. The cache is
// keyed by a hash of the truncated text, matching what would actually be
// sent to the model.
type CachedEmbedder struct {
	inner Embedder
	cache *ristretto.Cache
}

// NewCachedEmbedder creates a CachedEmbedder holding up to maxEntries
// vectors.
func NewCachedEmbedder(inner Embedder, maxEntries int64) (*CachedEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "create embedding cache")
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(Truncate(text))

	if v, ok := c.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, vec, 1)
	return vec, nil
}

// Close releases the cache resources.
func (c *CachedEmbedder) Close() {
	c.cache.Close()
}

func cacheKey(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return strconv.FormatUint(h.Sum64(), 16)
}
