// Package chi exposes the codification pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	healthuc "github.com/osool-guide/codifier/internal/usecase/health"
)

// Classifier runs the classification pipeline.
type Classifier interface {
	Classify(ctx context.Context, rawQuery string) (domain.Result, error)
	Stats() domain.Stats
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP API.
type Server struct {
	classifier    Classifier
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(classifier Classifier, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		classifier: classifier,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrDeadline, http.StatusGatewayTimeout),
		sentinelHandler(domain.ErrBadResponse, http.StatusBadGateway),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrRetrieval, http.StatusInternalServerError),
	}
	return s
}

// Routes mounts the API on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/codify", s.Codify)
	r.Get("/healthz", s.Healthz)
	r.Get("/stats", s.Stats)
	r.Get("/metrics", s.Metrics)
}

// Codify handles POST /codify.
func (s *Server) Codify(w http.ResponseWriter, r *http.Request) {
	var req codifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	result, err := s.classifier.Classify(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToWire(result))
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToWire(report))
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsToWire(s.classifier.Stats()))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrDeadline,
		domain.ErrBadResponse,
		domain.ErrUpstream,
		domain.ErrEmbeddingProviderError,
		domain.ErrRetrieval,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error, writing a result-shaped body with the error field set.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, codifyResponse{Error: &msg})
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
