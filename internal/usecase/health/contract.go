package health

import "context"

// CatalogInfo reports the loaded catalog size.
type CatalogInfo interface {
	Len() int
}

// LLMChecker checks language model provider availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
