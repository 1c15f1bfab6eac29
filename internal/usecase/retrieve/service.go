// Package retrieve implements the retrieval stage: the canonical query is
// embedded and matched against the catalog index.
package retrieve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	"github.com/osool-guide/codifier/internal/metrics"
)

// Service is the retrieval stage.
type Service struct {
	embed     Embedder
	catalog   CatalogSearcher
	topK      int
	threshold float64
	logger    *zap.Logger
}

// New creates the retrieval service. threshold filters candidates by minimum
// similarity; when no candidate passes, the unfiltered list is kept so the
// selection stage always has material to reason over.
func New(embed Embedder, catalog CatalogSearcher, topK int, threshold float64, logger *zap.Logger) *Service {
	return &Service{
		embed:     embed,
		catalog:   catalog,
		topK:      topK,
		threshold: threshold,
		logger:    logger,
	}
}

// Retrieve embeds the canonical query and returns the candidate list, most
// similar first. An empty candidate list is a structural failure
// (domain.ErrRetrieval): without search results no classification is possible.
func (s *Service) Retrieve(ctx context.Context, canonicalQuery string) ([]domain.Candidate, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("retrieve").Observe(time.Since(start).Seconds())
	}()

	embResult, err := s.embed.Embed(ctx, canonicalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrRetrieval, err)
	}

	candidates, err := s.catalog.Search(embResult.Embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: index returned no candidates for k=%d", domain.ErrRetrieval, s.topK)
	}

	filtered := candidates[:0:0]
	for _, c := range candidates {
		if c.Score >= s.threshold {
			filtered = append(filtered, c)
		}
	}

	s.logger.Debug("retrieved candidates",
		zap.Int("total", len(candidates)),
		zap.Int("above_threshold", len(filtered)),
		zap.Float64("threshold", s.threshold),
	)

	// Keep the full list when nothing clears the threshold.
	if len(filtered) == 0 {
		return candidates, nil
	}
	return filtered, nil
}
