package embedding

import "testing"

func TestNewGenAIEngineRequiresKey(t *testing.T) {
	if _, err := NewGenAIEngine("", "gemini-embedding-001", ""); err == nil {
		t.Error("missing API key accepted")
	}
}

func TestNewGenAIEngineDefaults(t *testing.T) {
	engine, err := NewGenAIEngine("test-key", "", "")
	if err != nil {
		t.Fatalf("NewGenAIEngine: %v", err)
	}
	if engine.Name() != "genai:gemini-embedding-001" {
		t.Errorf("Name = %s", engine.Name())
	}
	if engine.Dimensions() != 768 {
		t.Errorf("Dimensions = %d", engine.Dimensions())
	}
	if engine.taskType != "SEMANTIC_SIMILARITY" {
		t.Errorf("default task type = %s", engine.taskType)
	}
}

func TestNewGenAIEngineTaskTypes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SEMANTIC_SIMILARITY", "SEMANTIC_SIMILARITY"},
		{"RETRIEVAL_DOCUMENT", "RETRIEVAL_DOCUMENT"},
		{"RETRIEVAL_QUERY", "RETRIEVAL_QUERY"},
		{"CLASSIFICATION", "CLASSIFICATION"},
		{"CLUSTERING", "CLUSTERING"},
		{"", "SEMANTIC_SIMILARITY"},
		{"SOMETHING_ELSE", "SEMANTIC_SIMILARITY"},
	}

	for _, tt := range tests {
		engine, err := NewGenAIEngine("test-key", "gemini-embedding-001", tt.in)
		if err != nil {
			t.Fatalf("NewGenAIEngine(%q): %v", tt.in, err)
		}
		if engine.taskType != tt.want {
			t.Errorf("task type for %q = %s, want %s", tt.in, engine.taskType, tt.want)
		}
	}
}
