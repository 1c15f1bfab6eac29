package selection

import (
	"context"

	"github.com/osool-guide/codifier/internal/domain"
)

// Completer sends one prompt to the language model.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest, out any) error
}
