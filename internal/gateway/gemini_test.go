package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"advisor/internal/config"
)

func geminiCompletion(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(config.LLMConfig{
		Provider: "gemini",
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash",
		BaseURL:  srv.URL,
		Timeout:  "5s",
	})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	return client
}

func TestCompleteWithSystemSuccess(t *testing.T) {
	var gotBody geminiRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("API key missing from query")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(geminiCompletion(`{"recommendations":[]}`)))
	})

	out, err := client.CompleteWithSystem(context.Background(), "you are an advisor", "recommend courses")
	if err != nil {
		t.Fatalf("CompleteWithSystem: %v", err)
	}
	if out != `{"recommendations":[]}` {
		t.Errorf("completion = %q", out)
	}

	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "you are an advisor" {
		t.Error("system instruction not forwarded")
	}
	if gotBody.Contents[0].Parts[0].Text != "recommend courses" {
		t.Error("user prompt not forwarded")
	}
	if gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Error("JSON response mime type not requested")
	}
}

func TestCompleteWithSystemRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(geminiCompletion("ok")))
	})

	out, err := client.CompleteWithSystem(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if out != "ok" {
		t.Errorf("completion = %q", out)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestCompleteWithSystemFailsFastOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad request"}}`))
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("non-429 errors should not be retried, calls = %d", calls.Load())
	}
}

func TestCompleteWithSystemEmptyCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "no completion") {
		t.Errorf("error = %v", err)
	}
}

func TestNewGeminiClientValidation(t *testing.T) {
	if _, err := NewGeminiClient(config.LLMConfig{}); err == nil {
		t.Error("missing API key accepted")
	}
	if _, err := NewGeminiClient(config.LLMConfig{APIKey: "k", Timeout: "soon"}); err == nil {
		t.Error("bad timeout accepted")
	}

	client, err := NewGeminiClient(config.LLMConfig{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if client.Name() != "gemini:gemini-2.5-flash" {
		t.Errorf("Name = %s", client.Name())
	}
}
