package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all advisor configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM gateway configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Vector index configuration
	Index IndexConfig `yaml:"index"`

	// Course catalog configuration
	Catalog CatalogConfig `yaml:"catalog"`

	// Guardrail thresholds
	Guardrails GuardrailsConfig `yaml:"guardrails"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM gateway.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama or genai

	// Ollama settings
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	// GenAI settings
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`

	// TaskType for GenAI: "SEMANTIC_SIMILARITY", "RETRIEVAL_QUERY", "RETRIEVAL_DOCUMENT"
	TaskType string `yaml:"task_type"`
}

// IndexConfig configures the vector index.
type IndexConfig struct {
	// Backend: "memory" (brute-force, rebuilt per run) or "sqlite" (persistent)
	Backend string `yaml:"backend"`

	// DatabasePath for the sqlite backend
	DatabasePath string `yaml:"database_path"`
}

// CatalogConfig configures the course catalog store.
type CatalogConfig struct {
	// CoursesPath is the JSON document holding course records
	CoursesPath string `yaml:"courses_path"`

	// Watch enables fsnotify-driven catalog reload between query cycles
	Watch bool `yaml:"watch"`
}

// GuardrailsConfig configures retrieval and validation thresholds.
type GuardrailsConfig struct {
	// SimilarityThreshold is the floor below which retrieval confidence
	// drops to the fallback tier (default 0.3)
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// ConfidenceThreshold is the minimum overall confidence for accepting
	// a validated response (default 0.6)
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// TopK is the default number of courses retrieved per query
	TopK int `yaml:"top_k"`

	// MaxRecommendations caps accepted recommendations per response
	MaxRecommendations int `yaml:"max_recommendations"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "advisor",
		Version: "0.5.0",

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			BaseURL:  "https://generativelanguage.googleapis.com/v1beta",
			Timeout:  "120s",
		},

		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
		},

		Index: IndexConfig{
			Backend:      "memory",
			DatabasePath: "data/advisor.db",
		},

		Catalog: CatalogConfig{
			CoursesPath: "data/courses.json",
			Watch:       false,
		},

		Guardrails: GuardrailsConfig{
			SimilarityThreshold: 0.3,
			ConfidenceThreshold: 0.6,
			TopK:                5,
			MaxRecommendations:  5,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "advisor.log",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file means defaults, still subject to env overrides
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// LLM API key from environment
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "gemini"
		}
	}
	if key := os.Getenv("ADVISOR_LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("ADVISOR_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	// Embedding overrides: the GenAI backend shares the Gemini key unless
	// explicitly configured otherwise.
	if c.Embedding.GenAIAPIKey == "" {
		c.Embedding.GenAIAPIKey = c.LLM.APIKey
	}
	if provider := os.Getenv("ADVISOR_EMBEDDING_PROVIDER"); provider != "" {
		c.Embedding.Provider = provider
	}
	if endpoint := os.Getenv("OLLAMA_ENDPOINT"); endpoint != "" {
		c.Embedding.OllamaEndpoint = endpoint
	}

	// Catalog path override
	if path := os.Getenv("ADVISOR_COURSES_PATH"); path != "" {
		c.Catalog.CoursesPath = path
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Guardrails.SimilarityThreshold < 0 || c.Guardrails.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0,1], got %v", c.Guardrails.SimilarityThreshold)
	}
	if c.Guardrails.ConfidenceThreshold < 0 || c.Guardrails.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1], got %v", c.Guardrails.ConfidenceThreshold)
	}
	if c.Guardrails.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Guardrails.TopK)
	}
	switch c.Index.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported index backend: %s (use 'memory' or 'sqlite')", c.Index.Backend)
	}
	return nil
}
