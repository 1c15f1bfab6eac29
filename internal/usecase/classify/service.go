// Package classify orchestrates the three-stage codification pipeline:
// query understanding, catalog retrieval, and candidate selection.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	"github.com/osool-guide/codifier/internal/metrics"
)

// Service runs the pipeline end to end and assembles the final result.
type Service struct {
	understand Understander
	retrieve   Retriever
	selection  Selector
	catalog    Catalog

	requestTimeout  time.Duration
	degradedPenalty float64

	llmModel       string
	embeddingModel string

	logger *zap.Logger
}

// Config carries the orchestrator knobs.
type Config struct {
	// RequestTimeout bounds one classification end to end.
	RequestTimeout time.Duration
	// DegradedPenalty multiplies the confidence when any stage degraded.
	DegradedPenalty float64
	// Model names reported by Stats.
	LLMModel       string
	EmbeddingModel string
}

// New creates the pipeline orchestrator.
func New(u Understander, r Retriever, sel Selector, cat Catalog, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		understand:      u,
		retrieve:        r,
		selection:       sel,
		catalog:         cat,
		requestTimeout:  cfg.RequestTimeout,
		degradedPenalty: cfg.DegradedPenalty,
		llmModel:        cfg.LLMModel,
		embeddingModel:  cfg.EmbeddingModel,
		logger:          logger,
	}
}

// Classify runs the pipeline for one query. The returned result is always
// well formed; when err is non-nil it is a domain sentinel and the result
// carries the same message in its Error field.
func (s *Service) Classify(ctx context.Context, rawQuery string) (domain.Result, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return s.fail(fmt.Errorf("%w: empty query", domain.ErrInvalidQuery))
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	start := time.Now()

	u := s.understand.Understand(ctx, query)
	if err := ctx.Err(); err != nil {
		return s.fail(fmt.Errorf("%w: query understanding: %w", domain.ErrDeadline, err))
	}

	candidates, err := s.retrieve.Retrieve(ctx, u.CanonicalQuery)
	if err != nil {
		if ctx.Err() != nil {
			return s.fail(fmt.Errorf("%w: retrieval: %w", domain.ErrDeadline, ctx.Err()))
		}
		return s.fail(err)
	}

	sel := s.selection.Select(ctx, query, u, candidates)
	if err := ctx.Err(); err != nil {
		return s.fail(fmt.Errorf("%w: selection: %w", domain.ErrDeadline, err))
	}

	result := s.assemble(u, sel)

	outcome := "ok"
	switch {
	case sel.Candidate == nil:
		outcome = "no_match"
	case u.Degraded || sel.Degraded:
		outcome = "degraded"
	}
	metrics.ClassificationsTotal.WithLabelValues(outcome).Inc()

	s.logger.Info("classification complete",
		zap.String("canonical_query", u.CanonicalQuery),
		zap.Int("candidates", len(candidates)),
		zap.String("outcome", outcome),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// assemble folds the stage outcomes into the final result, applying the
// degraded-confidence penalty.
func (s *Service) assemble(u domain.Understanding, sel domain.Selection) domain.Result {
	result := domain.Result{
		Definition: sel.Definition,
		Confidence: sel.Confidence,
		Reasoning:  sel.Reasoning,
	}

	if sel.Candidate != nil {
		item := sel.Candidate.Item
		inc, nsg, nsc := item.INC, item.NSG, item.NSC
		name := item.Name
		result.INC = &inc
		result.NSG = &nsg
		result.NSC = &nsc
		result.NSCFormatted = domain.FormatNSC(nsg, nsc)
		result.Name = &name
	}

	if u.Degraded || sel.Degraded {
		result.Confidence *= s.degradedPenalty
	}
	return result
}

func (s *Service) fail(err error) (domain.Result, error) {
	metrics.ClassificationsTotal.WithLabelValues("error").Inc()
	if !errors.Is(err, domain.ErrInvalidQuery) {
		s.logger.Warn("classification failed", zap.Error(err))
	}
	return domain.Result{Error: err.Error()}, err
}

// Stats reports the loaded catalog size and the configured models.
func (s *Service) Stats() domain.Stats {
	return domain.Stats{
		Items:          s.catalog.Len(),
		Dimension:      s.catalog.Dimension(),
		LLMModel:       s.llmModel,
		EmbeddingModel: s.embeddingModel,
	}
}
