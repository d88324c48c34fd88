package config

import "testing"

func TestLoadIncludesPipelineDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("MIN_RELEVANCE_SCORE", "")
	t.Setenv("ANALYSIS_BATCH_SIZE", "")
	t.Setenv("EMBED_PRIORITY", "")
	t.Setenv("COMPLETION_PRIORITY", "")
	t.Setenv("OPENAI_EMBED_DIMENSIONS", "")

	cfg := Load()
	if cfg.ChunkSize != 1000 {
		t.Fatalf("expected default chunk size 1000, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 200 {
		t.Fatalf("expected default chunk overlap 200, got %d", cfg.ChunkOverlap)
	}
	if cfg.MinRelevanceScore != 50 {
		t.Fatalf("expected default min relevance 50, got %d", cfg.MinRelevanceScore)
	}
	if cfg.AnalysisBatchSize != 5 {
		t.Fatalf("expected default batch size 5, got %d", cfg.AnalysisBatchSize)
	}
	if cfg.EmbedPriority != "ollama,gemini,openai" {
		t.Fatalf("unexpected default embed priority %q", cfg.EmbedPriority)
	}
	if cfg.CompletionPriority != "gemini,gradient,openai,ollama" {
		t.Fatalf("unexpected default completion priority %q", cfg.CompletionPriority)
	}
	if cfg.OpenAIEmbedDimensions != 768 {
		t.Fatalf("expected default embed dimensions 768, got %d", cfg.OpenAIEmbedDimensions)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "600")
	t.Setenv("MIN_RELEVANCE_SCORE", "70")
	t.Setenv("GRADIENT_ENABLED", "true")
	t.Setenv("COMPLETION_PRIORITY", "openai,ollama")

	cfg := Load()
	if cfg.ChunkSize != 600 {
		t.Fatalf("expected chunk size 600, got %d", cfg.ChunkSize)
	}
	if cfg.MinRelevanceScore != 70 {
		t.Fatalf("expected min relevance 70, got %d", cfg.MinRelevanceScore)
	}
	if !cfg.GradientEnabled {
		t.Fatal("expected gradient enabled")
	}
	if cfg.CompletionPriority != "openai,ollama" {
		t.Fatalf("unexpected completion priority %q", cfg.CompletionPriority)
	}
}

func TestLoadFallsBackOnInvalidInt(t *testing.T) {
	t.Setenv("ANALYSIS_BATCH_SIZE", "not-a-number")

	cfg := Load()
	if cfg.AnalysisBatchSize != 5 {
		t.Fatalf("expected fallback batch size 5, got %d", cfg.AnalysisBatchSize)
	}
}
