package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or malformed input query, rejected before any stage runs.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUpstream signals that the language model service is unavailable or returned a non-2xx response.
	ErrUpstream = errors.New("language model upstream error")
	// ErrDeadline signals an exceeded per-call or per-request deadline.
	ErrDeadline = errors.New("deadline exceeded")
	// ErrBadResponse signals a language model response that violates the expected shape
	// or the candidate-set constraint.
	ErrBadResponse = errors.New("malformed language model response")
	// ErrRetrieval signals a structural failure of the index search.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch against the index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
