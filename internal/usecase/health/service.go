package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot classify at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Items  int
}

// Service coordinates health checks.
type Service struct {
	catalog CatalogInfo
	llm     LLMChecker
	cache   CachePinger
}

// New creates a Service. cache can be nil.
func New(catalog CatalogInfo, llm LLMChecker, cache CachePinger) *Service {
	return &Service{catalog: catalog, llm: llm, cache: cache}
}

// Check runs health checks against all components. An empty catalog makes
// the service unhealthy; an unreachable model or cache only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	items := s.catalog.Len()
	if items > 0 {
		checks["catalog"] = CheckOK
	} else {
		checks["catalog"] = CheckError
	}

	if err := s.llm.HealthCheck(ctx); err != nil {
		checks["llm"] = CheckError
	} else {
		checks["llm"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["catalog"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Items: items}
}
