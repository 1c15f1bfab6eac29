package metrics

import "github.com/prometheus/client_golang/prometheus"

// Language model and classification pipeline metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codifier",
			Name:      "llm_requests_total",
			Help:      "Total number of language model requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codifier",
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codifier",
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"model", "type"},
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codifier",
			Name:      "classifications_total",
			Help:      "Total classification requests by outcome",
		},
		[]string{"outcome"}, // "ok" / "degraded" / "no_match" / "error"
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codifier",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"}, // "understand" / "retrieve" / "select"
	)

	UnderstandingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codifier",
			Name:      "understanding_cache_total",
			Help:      "Query understanding cache hits and misses",
		},
		[]string{"result"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers language model and pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(UnderstandingCacheTotal)
	pipelineMetricsRegistered = true
}
