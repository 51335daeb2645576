package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// resetState clears the package globals so each test starts from an
// uninitialized logger.
func resetState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	config = loggingConfig{}
	configLoaded = false
	logLevel = LevelInfo
}

func writeLoggingConfig(t *testing.T, ws, content string) {
	t.Helper()
	configDir := filepath.Join(ws, ".advisor")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestDebugModeCreatesLogFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeLoggingConfig(t, tempDir, `{
		"logging": {
			"level": "debug",
			"debug_mode": true
		}
	}`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	Retrieval("retrieval message %d", 1)
	GuardrailsDebug("guardrails debug message")
	CloseAll()

	logFiles, err := filepath.Glob(filepath.Join(tempDir, ".advisor", "logs", "*.log"))
	if err != nil {
		t.Fatal(err)
	}

	var foundRetrieval, foundGuardrails bool
	for _, f := range logFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(f, "retrieval") && strings.Contains(string(data), "retrieval message 1") {
			foundRetrieval = true
		}
		if strings.Contains(f, "guardrails") && strings.Contains(string(data), "guardrails debug message") {
			foundGuardrails = true
		}
	}
	if !foundRetrieval {
		t.Error("retrieval log file missing or empty")
	}
	if !foundGuardrails {
		t.Error("guardrails debug log file missing or empty")
	}
}

func TestProductionModeIsSilent(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	defer resetState()

	// No config file at all means production mode.
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if IsDebugMode() {
		t.Error("debug mode enabled without a config file")
	}

	Pipeline("should go nowhere")
	Get(CategoryIndex).Error("also nowhere")

	if _, err := os.Stat(filepath.Join(tempDir, ".advisor", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory created in production mode")
	}
}

func TestCategoryGating(t *testing.T) {
	tempDir := t.TempDir()
	writeLoggingConfig(t, tempDir, `{
		"logging": {
			"level": "debug",
			"debug_mode": true,
			"categories": {
				"retrieval": true,
				"gateway": false
			}
		}
	}`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	tests := []struct {
		category Category
		enabled  bool
	}{
		{CategoryRetrieval, true},
		{CategoryGateway, false},
		// Unlisted categories default to enabled in debug mode.
		{CategoryPipeline, true},
	}
	for _, tt := range tests {
		if got := IsCategoryEnabled(tt.category); got != tt.enabled {
			t.Errorf("IsCategoryEnabled(%s) = %v, want %v", tt.category, got, tt.enabled)
		}
	}

	// A disabled category gets a no-op logger that never opens a file.
	if l := Get(CategoryGateway); l.logger != nil {
		t.Error("disabled category returned a live logger")
	}
}

func TestGetIsSafeUninitialized(t *testing.T) {
	resetState()
	defer resetState()

	// No Initialize call at all: logging must degrade to no-ops.
	l := Get(CategoryPipeline)
	l.Info("no-op")
	l.Error("no-op")
	WithRequestID(CategoryPipeline, "req-1").Warn("no-op")
}

func TestTimerStop(t *testing.T) {
	resetState()
	defer resetState()

	timer := StartTimer(CategoryPerformance, "test-op")
	time.Sleep(time.Millisecond)
	if elapsed := timer.Stop(); elapsed <= 0 {
		t.Errorf("elapsed = %v", elapsed)
	}

	timer = StartTimer(CategoryPerformance, "slow-op")
	if elapsed := timer.StopWithThreshold(time.Nanosecond); elapsed <= 0 {
		t.Errorf("elapsed = %v", elapsed)
	}
}

func TestRequestLoggerCorrelation(t *testing.T) {
	tempDir := t.TempDir()
	writeLoggingConfig(t, tempDir, `{
		"logging": {
			"level": "debug",
			"debug_mode": true
		}
	}`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	WithRequestID(CategoryPipeline, "abc-123").WithField("tier", "HIGH").Info("query done")
	CloseAll()

	logFiles, err := filepath.Glob(filepath.Join(tempDir, ".advisor", "logs", "*_pipeline.log"))
	if err != nil || len(logFiles) == 0 {
		t.Fatalf("pipeline log file missing: %v", err)
	}
	data, err := os.ReadFile(logFiles[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[req:abc-123]") {
		t.Errorf("request ID missing from log line: %s", data)
	}
	if !strings.Contains(string(data), "tier") {
		t.Errorf("field missing from log line: %s", data)
	}
}
