package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chiRouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	healthuc "github.com/osool-guide/codifier/internal/usecase/health"
)

// --- Mocks ---

type mockClassifier struct {
	result domain.Result
	err    error
	stats  domain.Stats
	query  string
}

func (m *mockClassifier) Classify(_ context.Context, rawQuery string) (domain.Result, error) {
	m.query = rawQuery
	return m.result, m.err
}

func (m *mockClassifier) Stats() domain.Stats { return m.stats }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(c Classifier, h HealthChecker) http.Handler {
	r := chiRouter.NewRouter()
	NewServer(c, h, zap.NewNop()).Routes(r)
	return r
}

func intPtr(v int) *int { return &v }

// --- Tests ---

func TestCodify(t *testing.T) {
	name := "RIFLE"
	classifier := &mockClassifier{result: domain.Result{
		INC: intPtr(10101), NSG: intPtr(10), NSC: intPtr(1005),
		NSCFormatted: "05",
		Name:         &name,
		Definition:   domain.Bilingual{EN: "A shoulder firearm.", AR: "سلاح ناري كتفي."},
		Confidence:   0.9,
		Reasoning:    domain.Bilingual{EN: "Direct match.", AR: "تطابق مباشر."},
	}}
	router := newTestRouter(classifier, &mockHealth{})

	req := httptest.NewRequest("POST", "/codify", strings.NewReader(`{"query": "M4 carbine"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if classifier.query != "M4 carbine" {
		t.Errorf("query not forwarded: got %q", classifier.query)
	}

	var resp codifyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.INC == nil || *resp.INC != 10101 {
		t.Errorf("inc: got %v, want 10101", resp.INC)
	}
	if resp.NSCFormatted == nil || *resp.NSCFormatted != "05" {
		t.Errorf("nsc_formatted: got %v, want 05", resp.NSCFormatted)
	}
	if resp.DefinitionAR == nil || *resp.DefinitionAR == "" {
		t.Error("expected an Arabic definition")
	}
	if resp.Error != nil {
		t.Errorf("unexpected error field: %v", *resp.Error)
	}
}

func TestCodify_NoMatch(t *testing.T) {
	classifier := &mockClassifier{result: domain.Result{
		Confidence: 0,
		Reasoning:  domain.Bilingual{EN: "No candidate fits.", AR: "لا يوجد مرشح مناسب."},
	}}
	router := newTestRouter(classifier, &mockHealth{})

	req := httptest.NewRequest("POST", "/codify", strings.NewReader(`{"query": "quantum radio"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp codifyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.INC != nil || resp.NSG != nil || resp.NSC != nil || resp.Name != nil {
		t.Error("no-match response must carry null codes")
	}
	if resp.Confidence != 0 {
		t.Errorf("confidence: got %f, want 0", resp.Confidence)
	}
}

func TestCodify_BadBody(t *testing.T) {
	router := newTestRouter(&mockClassifier{}, &mockHealth{})

	req := httptest.NewRequest("POST", "/codify", strings.NewReader(`{not json`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != "bad_request" {
		t.Errorf("error code: got %s, want bad_request", errResp.Code)
	}
}

func TestCodify_SentinelStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest},
		{"deadline", domain.ErrDeadline, http.StatusGatewayTimeout},
		{"bad model response", domain.ErrBadResponse, http.StatusBadGateway},
		{"upstream", domain.ErrUpstream, http.StatusBadGateway},
		{"retrieval", domain.ErrRetrieval, http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &mockClassifier{err: fmt.Errorf("wrapped: %w", tt.err)}
			router := newTestRouter(classifier, &mockHealth{})

			req := httptest.NewRequest("POST", "/codify", strings.NewReader(`{"query": "x"}`))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
			if strings.Contains(rr.Body.String(), "wrapped") {
				t.Error("internal error detail leaked to the client")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	h := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{
			"catalog": healthuc.CheckOK,
			"llm":     healthuc.CheckOK,
		},
		Items: 54000,
	}}
	router := newTestRouter(&mockClassifier{}, h)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %s, want ok", resp.Status)
	}
	if resp.Items != 54000 {
		t.Errorf("items: got %d, want 54000", resp.Items)
	}
	if resp.Checks["catalog"] != "ok" {
		t.Errorf("catalog check: got %s, want ok", resp.Checks["catalog"])
	}
}

func TestHealthz_Unhealthy503(t *testing.T) {
	h := &mockHealth{report: healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"catalog": healthuc.CheckError},
	}}
	router := newTestRouter(&mockClassifier{}, h)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestStats(t *testing.T) {
	classifier := &mockClassifier{stats: domain.Stats{
		Items:          54000,
		Dimension:      1536,
		LLMModel:       "llama-3.3-70b",
		EmbeddingModel: "text-embedding-3-small",
	}}
	router := newTestRouter(classifier, &mockHealth{})

	req := httptest.NewRequest("GET", "/stats", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp statsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Items != 54000 || resp.Dimension != 1536 {
		t.Errorf("unexpected stats: %+v", resp)
	}
	if resp.LLMModel != "llama-3.3-70b" {
		t.Errorf("llm model: got %s", resp.LLMModel)
	}
}
