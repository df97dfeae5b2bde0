package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// Embedder is the opaque text-embedding dependency spec.md §1 names.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CachedEmbedder wraps an Embedder with an in-process content-hash cache,
// so re-embedding the same content (e.g. during migration re-checks)
// doesn't re-hit the model for identical text within a process lifetime.
type CachedEmbedder struct {
	inner Embedder
	cache sync.Map // content hash -> []float32
}

func NewCachedEmbedder(inner Embedder) *CachedEmbedder {
	return &CachedEmbedder{inner: inner}
}

// Embed returns the embedding for text, using the cache when available.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	hash := ContentHash(text)
	if v, ok := e.cache.Load(hash); ok {
		return v.([]float32), nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Store(hash, vec)
	return vec, nil
}

// ContentHash computes a SHA-256 hash of text content, used both for the
// cache key here and for Memory.EmbeddingStale detection in the store.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h)
}
