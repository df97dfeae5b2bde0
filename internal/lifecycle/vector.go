package lifecycle

import (
	"errors"

	"github.com/RLabs-Inc/memory/internal/search"
)

// errNotFound signals a referenced id (supersedes/resolves target) doesn't
// exist in the store — treated as a no-op rather than a hard failure,
// since a curator-supplied id can go stale between curation and reconcile.
var errNotFound = errors.New("lifecycle: referenced memory not found")

func withinThreshold(a, b []float32, threshold float64) bool {
	return search.CosineSimilarity(a, b) >= threshold
}
