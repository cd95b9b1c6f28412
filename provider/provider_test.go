package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
)

func chatServer(t *testing.T, failures int32, content string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if n <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("expected a single user message, got %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNewUnavailable(t *testing.T) {
	t.Parallel()
	cases := []config.LLMConfig{
		{},
		{Provider: "none", OpenAIAPIKey: "k"},
		{Provider: "groq"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable for %+v, got %v", cfg, err)
		}
	}
}

func TestNewDetectsProviderFromKeys(t *testing.T) {
	t.Parallel()
	m, err := New(config.LLMConfig{GroqAPIKey: "g", GroqModel: "llama-3.3-70b-versatile", OpenAIModel: "gpt-4"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if m.Model() != "llama-3.3-70b-versatile" {
		t.Fatalf("expected groq model, got %s", m.Model())
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	t.Parallel()
	srv, calls := chatServer(t, 1, `{"key_findings":[]}`)
	m, err := New(config.LLMConfig{
		Provider:     "openai",
		OpenAIAPIKey: "k",
		OpenAIModel:  "gpt-4",
		BaseURL:      srv.URL,
		MaxRetries:   2,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := m.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"key_findings":[]}` {
		t.Fatalf("unexpected content %q", out)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestCompleteGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()
	srv, calls := chatServer(t, 10, "")
	m, err := New(config.LLMConfig{Provider: "openai", OpenAIAPIKey: "k", BaseURL: srv.URL, MaxRetries: 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := m.Complete(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}
