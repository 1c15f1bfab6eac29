package classify

import (
	"context"

	"github.com/osool-guide/codifier/internal/domain"
)

// Understander normalizes a raw query. It degrades instead of failing.
type Understander interface {
	Understand(ctx context.Context, rawQuery string) domain.Understanding
}

// Retriever finds catalog candidates for a canonical query.
type Retriever interface {
	Retrieve(ctx context.Context, canonicalQuery string) ([]domain.Candidate, error)
}

// Selector picks the best candidate. It degrades instead of failing.
type Selector interface {
	Select(ctx context.Context, rawQuery string, u domain.Understanding, candidates []domain.Candidate) domain.Selection
}

// Catalog exposes read-only facts about the loaded catalog.
type Catalog interface {
	Len() int
	Dimension() int
}
