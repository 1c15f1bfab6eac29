package domain

// Understanding is the outcome of the query-understanding stage.
// CanonicalQuery is never empty: when the language model fails or returns
// nothing useful, it falls back to the raw query and Degraded is set.
type Understanding struct {
	CanonicalQuery string
	Attributes     map[string]string
	Degraded       bool
}

// Selection is the outcome of the candidate-selection stage.
// A nil Candidate with Confidence 0 is a deliberate no-match verdict.
type Selection struct {
	Candidate  *Candidate
	Definition Bilingual
	Confidence float64
	Reasoning  Bilingual
	Degraded   bool
}

// Result is the final classification returned to the caller. Nil code fields
// with a non-empty Error signal a failed request; nil code fields with an
// empty Error and Confidence 0 signal a no-match verdict.
type Result struct {
	INC          *int
	NSG          *int
	NSC          *int
	NSCFormatted string
	Name         *string
	Definition   Bilingual
	Confidence   float64
	Reasoning    Bilingual
	Error        string
}

// Stats reports read-only facts about the loaded pipeline.
type Stats struct {
	Items          int
	Dimension      int
	LLMModel       string
	EmbeddingModel string
}
