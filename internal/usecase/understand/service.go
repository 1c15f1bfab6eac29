// Package understand implements the query-understanding stage: the raw asset
// description is normalized into a canonical search query plus extracted
// attributes via the language model.
package understand

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	"github.com/osool-guide/codifier/internal/metrics"
)

const systemPrompt = "You are a military logistics classification expert. " +
	"Always respond with valid JSON only."

const promptTemplate = `A user describes this asset: %q

Normalize the description for catalog search:
- Focus on the PRIMARY function of the item, not word order.
  "computer desktop" means "desktop computer"; "computer desk" is furniture.
- Expand abbreviations (e.g. "ADP" -> "automatic data processing").
- Identify the core item first, then its modifiers.

Respond ONLY with valid JSON in this exact format:
{
  "canonical_query": "normalized search phrase naming the primary item and its key features",
  "category": "item category (vehicle, weapon, electronic component, furniture, ...)",
  "item_type": "specific item type",
  "attributes": {"material": "...", "function": "...", "platform": "..."}
}

Omit attribute keys you cannot infer. canonical_query must never be empty.`

// response is the expected language model output shape.
type response struct {
	CanonicalQuery string            `json:"canonical_query"`
	Category       string            `json:"category"`
	ItemType       string            `json:"item_type"`
	Attributes     map[string]string `json:"attributes"`
}

// Service is the query-understanding stage.
type Service struct {
	llm    Completer
	cache  Cache
	logger *zap.Logger
}

// New creates the understanding service.
func New(llm Completer, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// WithCache attaches an optional understanding cache.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// Understand normalizes the raw query. It never fails: on any language model
// failure it degrades to the raw query with empty attributes and sets the
// Degraded flag so the orchestrator can lower final confidence.
func (s *Service) Understand(ctx context.Context, rawQuery string) domain.Understanding {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("understand").Observe(time.Since(start).Seconds())
	}()

	if s.cache != nil {
		if u, ok := s.cache.Get(ctx, rawQuery); ok && u.CanonicalQuery != "" {
			return u
		}
	}

	var resp response
	err := s.llm.Complete(ctx, domain.CompletionRequest{
		System: systemPrompt,
		User:   fmt.Sprintf(promptTemplate, rawQuery),
	}, &resp)
	if err != nil {
		s.logger.Warn("query understanding degraded to raw query", zap.Error(err))
		return domain.Understanding{CanonicalQuery: rawQuery, Degraded: true}
	}

	u := domain.Understanding{
		CanonicalQuery: strings.TrimSpace(resp.CanonicalQuery),
		Attributes:     mergeAttributes(resp),
	}
	if u.CanonicalQuery == "" {
		u.CanonicalQuery = rawQuery
	}

	if s.cache != nil {
		s.cache.Put(ctx, rawQuery, u)
	}
	return u
}

// mergeAttributes folds category and item_type into the attribute mapping.
func mergeAttributes(resp response) map[string]string {
	attrs := make(map[string]string, len(resp.Attributes)+2)
	for k, v := range resp.Attributes {
		if v != "" {
			attrs[k] = v
		}
	}
	if resp.Category != "" {
		attrs["category"] = resp.Category
	}
	if resp.ItemType != "" {
		attrs["item_type"] = resp.ItemType
	}
	return attrs
}
