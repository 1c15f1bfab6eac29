package domain

import "context"

// Completer is the language model request-response contract. Complete sends
// the prompt, requires a JSON object response, and decodes it into out.
// Failures carry exactly one of ErrUpstream, ErrDeadline, or ErrBadResponse.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest, out any) error
}

// CompletionRequest holds one prompt for the language model.
type CompletionRequest struct {
	System string
	User   string
}
