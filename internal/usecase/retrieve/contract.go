package retrieve

import (
	"context"

	"github.com/osool-guide/codifier/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CatalogSearcher runs k-nearest-neighbor search over the catalog.
type CatalogSearcher interface {
	Search(vector []float32, k int) ([]domain.Candidate, error)
}
