// Package selection implements the final pipeline stage: the language model
// picks the best candidate from the retrieved list, scores its confidence,
// and explains the verdict in English and Arabic.
package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	"github.com/osool-guide/codifier/internal/metrics"
)

// Fallback reasonings for paths that complete without a model verdict.
var (
	singleCandidateReasoning = domain.Bilingual{
		EN: "Only one candidate was retrieved from the catalog index.",
		AR: "تم استرجاع مرشح واحد فقط من فهرس الكتالوج.",
	}
	fallbackReasoning = domain.Bilingual{
		EN: "Automated selection was unavailable; the highest-similarity candidate was chosen.",
		AR: "تعذر الاختيار الآلي؛ تم اختيار المرشح الأعلى تشابهاً.",
	}
)

// singleCandidateCeiling caps the similarity-boosted confidence when the
// model is skipped for a single candidate.
const singleCandidateCeiling = 0.99

// response is the expected language model output shape. Position is 1-based.
type response struct {
	Position    int     `json:"position"`
	NoMatch     bool    `json:"no_match"`
	Confidence  float64 `json:"confidence"`
	ReasoningEN string  `json:"reasoning_en"`
	ReasoningAR string  `json:"reasoning_ar"`
}

// translation is the expected shape of a definition translation.
type translation struct {
	DefinitionAR string `json:"definition_ar"`
}

// Service is the candidate-selection stage.
type Service struct {
	llm             Completer
	fallbackCeiling float64
	singleBoost     float64
	logger          *zap.Logger
}

// New creates the selection service. fallbackCeiling caps the confidence of
// fallback verdicts; singleBoost multiplies the similarity score when only
// one candidate was retrieved.
func New(llm Completer, fallbackCeiling, singleBoost float64, logger *zap.Logger) *Service {
	return &Service{
		llm:             llm,
		fallbackCeiling: fallbackCeiling,
		singleBoost:     singleBoost,
		logger:          logger,
	}
}

// Select picks the best candidate. It never fails: language model outages
// degrade to the top-1 candidate, a response violating the candidate-set
// constraint is retried once with a stricter prompt before degrading.
// candidates must be non-empty, ordered most-similar first.
func (s *Service) Select(
	ctx context.Context, rawQuery string, u domain.Understanding, candidates []domain.Candidate,
) domain.Selection {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("select").Observe(time.Since(start).Seconds())
	}()

	if len(candidates) == 1 {
		return s.selectSingle(ctx, candidates[0])
	}

	prompt := buildSelectionPrompt(rawQuery, u, candidates)

	sel, err := s.ask(ctx, systemPrompt, prompt, candidates)
	if err == nil {
		return s.resolveDefinition(ctx, sel)
	}
	if !errors.Is(err, domain.ErrBadResponse) {
		s.logger.Warn("selection degraded to top candidate", zap.Error(err))
		return s.fallbackTop1(ctx, candidates)
	}

	// The model answered but ignored the candidate-set constraint. One retry
	// with a stricter instruction, then give up on model selection.
	s.logger.Warn("selection response malformed, retrying with strict prompt", zap.Error(err))
	sel, err = s.ask(ctx, strictSystemPrompt, prompt, candidates)
	if err != nil {
		s.logger.Warn("strict selection retry failed, degrading to top candidate", zap.Error(err))
		return s.fallbackTop1(ctx, candidates)
	}
	return s.resolveDefinition(ctx, sel)
}

// ask runs one selection round trip and validates the verdict.
func (s *Service) ask(
	ctx context.Context, system, prompt string, candidates []domain.Candidate,
) (domain.Selection, error) {
	var resp response
	if err := s.llm.Complete(ctx, domain.CompletionRequest{System: system, User: prompt}, &resp); err != nil {
		return domain.Selection{}, err
	}

	if resp.NoMatch {
		return domain.Selection{
			Confidence: 0,
			Reasoning:  domain.Bilingual{EN: resp.ReasoningEN, AR: resp.ReasoningAR},
		}, nil
	}

	if resp.Position < 1 || resp.Position > len(candidates) {
		return domain.Selection{}, fmt.Errorf(
			"position %d outside candidate range [1,%d]: %w",
			resp.Position, len(candidates), domain.ErrBadResponse)
	}

	chosen := candidates[resp.Position-1]
	return domain.Selection{
		Candidate:  &chosen,
		Confidence: clamp01(resp.Confidence),
		Reasoning:  domain.Bilingual{EN: resp.ReasoningEN, AR: resp.ReasoningAR},
	}, nil
}

// selectSingle shortcuts the model for a lone candidate: pick it with a
// similarity-boosted confidence.
func (s *Service) selectSingle(ctx context.Context, c domain.Candidate) domain.Selection {
	conf := c.Score * s.singleBoost
	if conf > singleCandidateCeiling {
		conf = singleCandidateCeiling
	}
	return s.resolveDefinition(ctx, domain.Selection{
		Candidate:  &c,
		Confidence: clamp01(conf),
		Reasoning:  singleCandidateReasoning,
	})
}

// fallbackTop1 returns the highest-similarity candidate with capped
// confidence. Availability over exactness.
func (s *Service) fallbackTop1(ctx context.Context, candidates []domain.Candidate) domain.Selection {
	top := candidates[0]
	conf := top.Score
	if conf > s.fallbackCeiling {
		conf = s.fallbackCeiling
	}
	return s.resolveDefinition(ctx, domain.Selection{
		Candidate:  &top,
		Confidence: clamp01(conf),
		Reasoning:  fallbackReasoning,
		Degraded:   true,
	})
}

// resolveDefinition copies the selected item's bilingual definition into the
// selection, translating on the fly when the catalog lacks the Arabic text.
func (s *Service) resolveDefinition(ctx context.Context, sel domain.Selection) domain.Selection {
	if sel.Candidate == nil {
		return sel
	}

	sel.Definition = sel.Candidate.Item.Definition
	if sel.Definition.AR != "" || sel.Definition.EN == "" {
		return sel
	}

	var tr translation
	err := s.llm.Complete(ctx, domain.CompletionRequest{
		System: translateSystemPrompt,
		User:   buildTranslationPrompt(sel.Definition.EN),
	}, &tr)
	if err != nil {
		// Best effort: a missing translation never fails the verdict.
		s.logger.Warn("definition translation failed", zap.Error(err))
		return sel
	}

	sel.Definition.AR = tr.DefinitionAR
	return sel
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
