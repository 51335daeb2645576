package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "gemini" {
		t.Errorf("default LLM provider = %s", cfg.LLM.Provider)
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("default embedding provider = %s", cfg.Embedding.Provider)
	}
	if cfg.Index.Backend != "memory" {
		t.Errorf("default index backend = %s", cfg.Index.Backend)
	}
	if cfg.Guardrails.SimilarityThreshold != 0.3 {
		t.Errorf("default similarity threshold = %v", cfg.Guardrails.SimilarityThreshold)
	}
	if cfg.Guardrails.ConfidenceThreshold != 0.6 {
		t.Errorf("default confidence threshold = %v", cfg.Guardrails.ConfidenceThreshold)
	}
	if cfg.Guardrails.TopK != 5 {
		t.Errorf("default top_k = %d", cfg.Guardrails.TopK)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load on a missing file should not fail: %v", err)
	}
	if cfg.Name != "advisor" {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  model: gemini-2.0-flash
guardrails:
  top_k: 3
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("LLM model not overridden: %s", cfg.LLM.Model)
	}
	if cfg.Guardrails.TopK != 3 {
		t.Errorf("top_k not overridden: %d", cfg.Guardrails.TopK)
	}
	// Untouched fields keep their defaults.
	if cfg.Guardrails.SimilarityThreshold != 0.3 {
		t.Errorf("similarity threshold lost its default: %v", cfg.Guardrails.SimilarityThreshold)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key-from-env")
	t.Setenv("ADVISOR_EMBEDDING_PROVIDER", "genai")
	t.Setenv("ADVISOR_COURSES_PATH", "/tmp/other-courses.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LLM.APIKey != "key-from-env" {
		t.Errorf("GEMINI_API_KEY not applied: %q", cfg.LLM.APIKey)
	}
	if cfg.Embedding.GenAIAPIKey != "key-from-env" {
		t.Errorf("GenAI key should inherit the Gemini key: %q", cfg.Embedding.GenAIAPIKey)
	}
	if cfg.Embedding.Provider != "genai" {
		t.Errorf("embedding provider override missing: %s", cfg.Embedding.Provider)
	}
	if cfg.Catalog.CoursesPath != "/tmp/other-courses.json" {
		t.Errorf("courses path override missing: %s", cfg.Catalog.CoursesPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"sqlite backend", func(c *Config) { c.Index.Backend = "sqlite" }, true},
		{"similarity above one", func(c *Config) { c.Guardrails.SimilarityThreshold = 1.5 }, false},
		{"negative confidence", func(c *Config) { c.Guardrails.ConfidenceThreshold = -0.1 }, false},
		{"zero top_k", func(c *Config) { c.Guardrails.TopK = 0 }, false},
		{"unknown backend", func(c *Config) { c.Index.Backend = "redis" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "gemini-2.5-pro"
	cfg.Guardrails.TopK = 7
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LLM.Model != "gemini-2.5-pro" || loaded.Guardrails.TopK != 7 {
		t.Errorf("round-trip mismatch: model=%s top_k=%d", loaded.LLM.Model, loaded.Guardrails.TopK)
	}
}
