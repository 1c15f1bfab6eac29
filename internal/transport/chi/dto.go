package chi

import (
	"github.com/osool-guide/codifier/internal/domain"
	healthuc "github.com/osool-guide/codifier/internal/usecase/health"
)

type codifyRequest struct {
	Query string `json:"query"`
}

// codifyResponse is the wire shape of a classification result. Code fields
// are null for a no-match verdict; error is null unless the request failed.
type codifyResponse struct {
	INC          *int    `json:"inc"`
	NSG          *int    `json:"nsg"`
	NSC          *int    `json:"nsc"`
	NSCFormatted *string `json:"nsc_formatted"`
	Name         *string `json:"name"`
	DefinitionEN *string `json:"definition_en"`
	DefinitionAR *string `json:"definition_ar"`
	Confidence   float64 `json:"confidence"`
	ReasoningEN  string  `json:"reasoning_en"`
	ReasoningAR  string  `json:"reasoning_ar"`
	Error        *string `json:"error"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Items  int               `json:"items"`
}

type statsResponse struct {
	Items          int    `json:"items"`
	Dimension      int    `json:"dimension"`
	LLMModel       string `json:"llm_model"`
	EmbeddingModel string `json:"embedding_model"`
}

func resultToWire(res domain.Result) codifyResponse {
	resp := codifyResponse{
		INC:          res.INC,
		NSG:          res.NSG,
		NSC:          res.NSC,
		Name:         res.Name,
		DefinitionEN: strPtr(res.Definition.EN),
		DefinitionAR: strPtr(res.Definition.AR),
		Confidence:   res.Confidence,
		ReasoningEN:  res.Reasoning.EN,
		ReasoningAR:  res.Reasoning.AR,
		Error:        strPtr(res.Error),
	}
	if res.NSCFormatted != "" {
		f := res.NSCFormatted
		resp.NSCFormatted = &f
	}
	return resp
}

func healthToWire(r healthuc.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthResponse{Status: string(r.Status), Checks: checks, Items: r.Items}
}

func statsToWire(s domain.Stats) statsResponse {
	return statsResponse{
		Items:          s.Items,
		Dimension:      s.Dimension,
		LLMModel:       s.LLMModel,
		EmbeddingModel: s.EmbeddingModel,
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
