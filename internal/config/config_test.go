package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Catalog: CatalogConfig{
			VectorsPath:  "data/vectors.bin",
			MetadataPath: "data/metadata.jsonl",
		},
		LLM:       LLMConfig{Model: "llama-3.3-70b"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small", Dimensions: 1536},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingCatalogPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.VectorsPath = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing vectors path")
	}

	cfg = validConfig()
	cfg.Catalog.MetadataPath = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing metadata path")
	}
}

func TestValidate_MissingModels(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing llm model")
	}

	cfg = validConfig()
	cfg.Embedding.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_InvalidDimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
}

func TestValidate_PipelineBounds(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	cfg.Pipeline.SimilarityThreshold = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold above 1")
	}

	cfg = validConfig()
	cfg.ApplyDefaults()
	cfg.Pipeline.DegradedConfidencePenalty = 1.2

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for penalty above 1")
	}

	cfg = validConfig()
	cfg.ApplyDefaults()
	cfg.Pipeline.SingleCandidateBoost = 0.9

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for boost below 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Cache.TTLSec != 86400 {
		t.Errorf("expected TTLSec=86400, got %d", cfg.Cache.TTLSec)
	}
	if cfg.LLM.MaxTokens != 1024 {
		t.Errorf("expected MaxTokens=1024, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.LLM.TimeoutSec)
	}
	if cfg.Pipeline.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.SimilarityThreshold != 0.6 {
		t.Errorf("expected SimilarityThreshold=0.6, got %g", cfg.Pipeline.SimilarityThreshold)
	}
	if cfg.Pipeline.RequestTimeoutSec != 30 {
		t.Errorf("expected RequestTimeoutSec=30, got %d", cfg.Pipeline.RequestTimeoutSec)
	}
	if cfg.Pipeline.DegradedConfidencePenalty != 0.85 {
		t.Errorf("expected DegradedConfidencePenalty=0.85, got %g", cfg.Pipeline.DegradedConfidencePenalty)
	}
	if cfg.Pipeline.FallbackConfidenceCeiling != 0.5 {
		t.Errorf("expected FallbackConfidenceCeiling=0.5, got %g", cfg.Pipeline.FallbackConfidenceCeiling)
	}
	if cfg.Pipeline.SingleCandidateBoost != 1.1 {
		t.Errorf("expected SingleCandidateBoost=1.1, got %g", cfg.Pipeline.SingleCandidateBoost)
	}
}

func TestApplyDefaults_EmbeddingProviderFallback(t *testing.T) {
	cfg := Config{
		LLM: LLMConfig{BaseURL: "https://api.example.com/v1", APIKey: "shared-key"},
	}
	cfg.ApplyDefaults()

	if cfg.Embedding.BaseURL != "https://api.example.com/v1" {
		t.Errorf("expected embedding base url to fall back, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.APIKey != "shared-key" {
		t.Errorf("expected embedding api key to fall back, got %q", cfg.Embedding.APIKey)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Embedding: EmbeddingConfig{
			BaseURL: "https://emb.example.com/v1",
			APIKey:  "emb-key",
		},
		LLM:      LLMConfig{BaseURL: "https://llm.example.com/v1", APIKey: "llm-key", MaxTokens: 2048},
		Pipeline: PipelineConfig{TopK: 25, SimilarityThreshold: 0.4},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Embedding.BaseURL != "https://emb.example.com/v1" {
		t.Errorf("embedding base url overridden: %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.APIKey != "emb-key" {
		t.Errorf("embedding api key overridden: %q", cfg.Embedding.APIKey)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Errorf("expected MaxTokens=2048, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.Pipeline.TopK != 25 {
		t.Errorf("expected TopK=25, got %d", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.SimilarityThreshold != 0.4 {
		t.Errorf("expected SimilarityThreshold=0.4, got %g", cfg.Pipeline.SimilarityThreshold)
	}
}
