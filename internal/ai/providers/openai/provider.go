package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/doclama/doclama/internal/ai"
)

type Provider struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	healthy bool
	mu      sync.RWMutex
}

func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, ai.NewConfigurationError("openai", "base_url", fmt.Sprintf("invalid base URL: %v", err))
	}

	client := &http.Client{
		Timeout: config.Timeout,
	}

	return &Provider{
		config:  config,
		client:  client,
		baseURL: baseURL,
		healthy: true,
	}, nil
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if req == nil {
		return nil, ai.NewValidationError("request", "nil", "completion request is required")
	}

	chatReq := p.buildChatRequest(req)
	chatReq.Stream = false

	response, err := p.sendChatRequest(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	return response.ToAIResponse(req.RequestID), nil
}

func (p *Provider) CompleteStream(ctx context.Context, req *ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	if req == nil {
		return nil, ai.NewValidationError("request", "nil", "completion request is required")
	}

	chatReq := p.buildChatRequest(req)
	chatReq.Stream = true

	ch := make(chan ai.StreamChunk)

	go func() {
		defer close(ch)

		if err := p.sendChatRequestStream(ctx, chatReq, ch); err != nil {
			select {
			case ch <- ai.StreamChunk{Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

// Embed converts texts into vectors using the embeddings endpoint.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ai.NewValidationError("texts", "", "at least one text is required")
	}

	endpoint := p.baseURL.JoinPath("/v1/embeddings")

	embReq := &EmbeddingsRequest{
		Model: p.config.EmbedModel,
		Input: texts,
	}

	body, err := json.Marshal(embReq)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal embeddings request", "openai", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to create embeddings request", "openai", err)
	}

	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "embeddings request failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var embResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode embeddings response", "openai", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, ai.NewProviderError(ai.ErrTypeProvider,
			fmt.Sprintf("embeddings response has %d entries for %d inputs", len(embResp.Data), len(texts)), "openai")
	}

	// The API may return entries out of order; the index field is authoritative.
	vectors := make([][]float32, len(texts))
	for _, datum := range embResp.Data {
		if datum.Index < 0 || datum.Index >= len(vectors) {
			return nil, ai.NewProviderError(ai.ErrTypeProvider, "embeddings response index out of range", "openai")
		}
		vector := make([]float32, len(datum.Embedding))
		for j, v := range datum.Embedding {
			vector[j] = float32(v)
		}
		vectors[datum.Index] = vector
	}

	return vectors, nil
}

// Dimension returns 0: the embedding dimension is decided by the model.
func (p *Provider) Dimension() int {
	return 0
}

func (p *Provider) CountTokens(text string) (int, error) {
	return p.estimateTokens(text), nil
}

func (p *Provider) MaxTokens() int {
	return p.config.MaxTokens
}

func (p *Provider) SupportsStreaming() bool {
	return true
}

func (p *Provider) ValidateConfig() error {
	return p.config.Validate()
}

func (p *Provider) Close() error {
	return nil
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	endpoint := p.baseURL.JoinPath("/v1/models")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), http.NoBody)
	if err != nil {
		p.setHealthy(false)
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to create health check request", "openai", err)
	}

	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.setHealthy(false)
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "health check request failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		p.setHealthy(true)
		return nil
	}

	p.setHealthy(false)

	if resp.StatusCode == http.StatusUnauthorized {
		return ai.NewProviderError(ai.ErrTypeAuthentication, "invalid API key", "openai")
	}

	return ai.NewProviderError(ai.ErrTypeProvider, fmt.Sprintf("health check failed with status %d", resp.StatusCode), "openai")
}

func (p *Provider) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthy
}

func (p *Provider) buildChatRequest(req *ai.CompletionRequest) *ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.config.DefaultModel
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.DefaultTemperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens / 2
	}

	chatReq := &ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		User:        req.RequestID,
	}

	chatReq.ToMessages(req.SystemPrompt, req.Prompt)

	return chatReq
}

func (p *Provider) sendChatRequest(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	endpoint := p.baseURL.JoinPath("/v1/chat/completions")

	body, err := json.Marshal(req)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "openai", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to create request", "openai", err)
	}

	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode response", "openai", err)
	}

	return &chatResp, nil
}

func (p *Provider) sendChatRequestStream(ctx context.Context, req *ChatCompletionRequest, ch chan<- ai.StreamChunk) error {
	endpoint := p.baseURL.JoinPath("/v1/chat/completions")

	body, err := json.Marshal(req)
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "openai", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to create request", "openai", err)
	}

	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return p.handleErrorResponse(resp)
	}

	return p.processStreamResponse(ctx, resp, ch)
}

func (p *Provider) processStreamResponse(ctx context.Context, resp *http.Response, ch chan<- ai.StreamChunk) error {
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if line == "data: [DONE]" {
			return p.sendStreamChunk(ctx, ch, ai.StreamChunk{Done: true})
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		if err := p.processStreamLine(ctx, ch, line); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "error reading stream", "openai", err)
	}

	return nil
}

func (p *Provider) processStreamLine(ctx context.Context, ch chan<- ai.StreamChunk, line string) error {
	data := strings.TrimPrefix(line, "data: ")

	var streamResp ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
		return nil // Skip malformed lines
	}

	if len(streamResp.Choices) == 0 {
		return nil
	}

	choice := streamResp.Choices[0]
	content := choice.Delta.Content
	done := choice.FinishReason != nil && *choice.FinishReason != ""

	if err := p.sendStreamChunk(ctx, ch, ai.StreamChunk{Content: content, Done: done}); err != nil {
		return err
	}

	if done {
		return io.EOF // Signal completion
	}

	return nil
}

func (p *Provider) sendStreamChunk(ctx context.Context, ch chan<- ai.StreamChunk, chunk ai.StreamChunk) error {
	select {
	case ch <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	if p.config.OrganizationID != "" {
		req.Header.Set("OpenAI-Organization", p.config.OrganizationID)
	}
}

func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ai.NewProviderError(ai.ErrTypeProvider, fmt.Sprintf("request failed with status %d", resp.StatusCode), "openai")
	}

	var errorResp ErrorResponse
	if json.Unmarshal(body, &errorResp) == nil && errorResp.Error.Message != "" {
		errType := ai.ErrTypeProvider
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			errType = ai.ErrTypeAuthentication
		case http.StatusNotFound:
			errType = ai.ErrTypeNotFound
		case http.StatusBadRequest:
			errType = ai.ErrTypeValidation
		}

		pe := ai.NewProviderError(errType, errorResp.Error.Message, "openai")
		pe.StatusCode = resp.StatusCode
		return pe
	}

	pe := ai.NewProviderError(ai.ErrTypeProvider, fmt.Sprintf("request failed with status %d", resp.StatusCode), "openai")
	pe.StatusCode = resp.StatusCode
	return pe
}

func (p *Provider) estimateTokens(text string) int {
	// Rough estimate of 4 characters per token.
	return len(text) / 4
}

func (p *Provider) setHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}
