package embedding

import (
	"context"
)

// MaxInputChars caps the text sent to the embedding model. Embedding
// models have a limited context window; longer input is truncated, not
// rejected.
const MaxInputChars = 8192

// Embedder produces a fixed-dimension vector from text.
// Implementations: Client (Ollama), CachedEmbedder (decorator).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Truncate trims text to at most MaxInputChars bytes without splitting a
// UTF-8 sequence.
func Truncate(text string) string {
	return TruncateTo(text, MaxInputChars)
}

// TruncateTo trims text to at most max bytes without splitting a UTF-8
// sequence.
func TruncateTo(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}
