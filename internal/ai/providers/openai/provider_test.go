package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doclama/doclama/internal/ai"
)

func testConfig(baseURL string) *Config {
	config := DefaultConfig()
	config.APIKey = "sk-test"
	config.BaseURL = baseURL
	return config
}

func TestProvider_New(t *testing.T) {
	provider, err := New(testConfig(DefaultBaseURL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if provider.Name() != "openai" {
		t.Errorf("Expected provider name 'openai', got '%s'", provider.Name())
	}

	if !provider.SupportsStreaming() {
		t.Error("Expected provider to support streaming")
	}
}

func TestProvider_NewRequiresAPIKey(t *testing.T) {
	config := DefaultConfig()

	if _, err := New(config); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path '/v1/chat/completions', got '%s'", r.URL.Path)
		}

		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got '%s'", auth)
		}

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		if len(req.Messages) != 2 {
			t.Errorf("Expected system and user messages, got %d", len(req.Messages))
		} else {
			if req.Messages[0].Role != "system" {
				t.Errorf("Expected first message role 'system', got '%s'", req.Messages[0].Role)
			}
			if req.Messages[1].Role != "user" {
				t.Errorf("Expected second message role 'user', got '%s'", req.Messages[1].Role)
			}
		}

		resp := ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: req.Model,
			Choices: []ChatCompletionChoice{
				{
					Message:      ChatMessage{Role: "assistant", Content: "Sauron"},
					FinishReason: "stop",
				},
			},
			Usage: ChatCompletionUsage{PromptTokens: 20, CompletionTokens: 2, TotalTokens: 22},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), &ai.CompletionRequest{
		Prompt:       "Who owns the one ring?",
		SystemPrompt: "Answer from the documentation only.",
	})
	if err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}

	if resp.Content != "Sauron" {
		t.Errorf("Expected content 'Sauron', got '%s'", resp.Content)
	}

	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got '%s'", resp.FinishReason)
	}

	if resp.Usage.TotalTokens != 22 {
		t.Errorf("Expected total tokens 22, got %d", resp.Usage.TotalTokens)
	}
}

func TestProvider_EmbedReordersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("Expected path '/v1/embeddings', got '%s'", r.URL.Path)
		}

		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		if len(req.Input) != 2 {
			t.Errorf("Expected 2 inputs, got %d", len(req.Input))
		}

		// Entries returned out of order; the index field is authoritative.
		resp := EmbeddingsResponse{
			Data: []EmbeddingDatum{
				{Index: 1, Embedding: []float64{2, 2}},
				{Index: 0, Embedding: []float64{1, 1}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}

	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Errorf("Vectors not reordered by index: %v", vectors)
	}
}

func TestProvider_EmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := EmbeddingsResponse{
			Data: []EmbeddingDatum{{Index: 0, Embedding: []float64{1}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Embed(context.Background(), []string{"first", "second"}); err == nil {
		t.Error("Expected error for entry count mismatch")
	}
}

func TestProvider_ErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantType   ai.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, ai.ErrTypeAuthentication},
		{"not found", http.StatusNotFound, ai.ErrTypeNotFound},
		{"bad request", http.StatusBadRequest, ai.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_ = json.NewEncoder(w).Encode(ErrorResponse{
					Error: ErrorDetail{Message: "backend rejected the request"},
				})
			}))
			defer server.Close()

			provider, err := New(testConfig(server.URL))
			if err != nil {
				t.Fatalf("Failed to create provider: %v", err)
			}

			_, err = provider.Complete(context.Background(), &ai.CompletionRequest{Prompt: "test"})
			if err == nil {
				t.Fatal("Expected error")
			}

			var provErr *ai.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("Expected ProviderError, got %T", err)
			}

			if provErr.Type != tt.wantType {
				t.Errorf("Expected error type %v, got %v", tt.wantType, provErr.Type)
			}

			if provErr.StatusCode != tt.statusCode {
				t.Errorf("Expected status %d, got %d", tt.statusCode, provErr.StatusCode)
			}
		})
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("Expected path '/v1/models', got '%s'", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if !provider.IsHealthy() {
		t.Error("Expected provider to report healthy")
	}
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing API key", func(c *Config) { c.APIKey = "" }, true},
		{"empty base URL", func(c *Config) { c.BaseURL = "" }, true},
		{"empty model", func(c *Config) { c.DefaultModel = "" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(DefaultBaseURL)
			tt.mutate(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
