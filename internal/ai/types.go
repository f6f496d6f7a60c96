package ai

import (
	"time"
)

// CompletionRequest is a request for text generation.
type CompletionRequest struct {
	// Prompt is the user-facing input text.
	Prompt string `json:"prompt"`

	// SystemPrompt provides system-level instructions.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 1.0).
	Temperature float64 `json:"temperature,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// RequestID for request tracking.
	RequestID string `json:"request_id,omitempty"`
}

// CompletionResponse is the result of a completion request.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped.
	FinishReason string `json:"finish_reason"`

	// Usage contains token accounting, when the backend reports it.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Model is the model that produced the answer.
	Model string `json:"model"`

	// RequestID matches the original request.
	RequestID string `json:"request_id,omitempty"`

	// CreatedAt timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Metadata holds provider-specific extras.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConfig is provider configuration in a provider-agnostic shape.
type ProviderConfig struct {
	// Name is the provider identifier.
	Name string `json:"name"`

	// Type is the provider type (ollama, openai).
	Type string `json:"type"`

	// APIKey for authentication, where the backend requires one.
	APIKey string `json:"api_key,omitempty"`

	// BaseURL for the API endpoint.
	BaseURL string `json:"base_url,omitempty"`

	// DefaultModel is the generation model.
	DefaultModel string `json:"default_model,omitempty"`

	// EmbedModel is the embedding model.
	EmbedModel string `json:"embed_model,omitempty"`

	// MaxTokens is the maximum context window.
	MaxTokens int `json:"max_tokens,omitempty"`

	// DefaultTemperature for requests.
	DefaultTemperature float64 `json:"default_temperature,omitempty"`

	// Timeout for requests.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Options holds provider-specific settings.
	Options map[string]interface{} `json:"options,omitempty"`
}
