package ai

import (
	"context"
	"io"
)

// LLMProvider is the interface for generation backends.
type LLMProvider interface {
	// Name returns the provider name (e.g. "ollama", "openai").
	Name() string

	// Complete performs a blocking text completion.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream performs a streaming text completion.
	CompleteStream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error)

	// CountTokens estimates the token count for the given text.
	CountTokens(text string) (int, error)

	// MaxTokens returns the maximum context window size.
	MaxTokens() int

	// SupportsStreaming indicates if the provider supports streaming.
	SupportsStreaming() bool

	// ValidateConfig validates the provider configuration.
	ValidateConfig() error

	// Close cleans up provider resources.
	Close() error
}

// Embedder is the interface for embedding backends.
type Embedder interface {
	// Embed converts texts into vector representations, preserving order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension, or 0 when the
	// backend decides it on first use.
	Dimension() int
}

// StreamChunk is one piece of a streaming completion.
type StreamChunk struct {
	Content string
	Done    bool
	Error   error
}

// HealthChecker verifies backend connectivity.
type HealthChecker interface {
	// HealthCheck verifies provider connectivity and status.
	HealthCheck(ctx context.Context) error

	// IsHealthy returns the last observed health status.
	IsHealthy() bool
}

// Provider combines every capability a fully featured backend offers.
type Provider interface {
	LLMProvider
	Embedder
	HealthChecker
	io.Closer
}
