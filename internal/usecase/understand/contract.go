package understand

import (
	"context"

	"github.com/osool-guide/codifier/internal/domain"
)

// Completer sends one prompt to the language model.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest, out any) error
}

// Cache stores understandings keyed by the raw query. Optional.
type Cache interface {
	Get(ctx context.Context, rawQuery string) (domain.Understanding, bool)
	Put(ctx context.Context, rawQuery string, u domain.Understanding)
}
