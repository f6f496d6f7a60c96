package cli

import (
	"context"
	"fmt"

	"github.com/doclama/doclama/internal/ai"
	"github.com/doclama/doclama/internal/ai/providers/ollama"
	"github.com/doclama/doclama/internal/ai/providers/openai"
	"github.com/doclama/doclama/internal/config"
	"github.com/doclama/doclama/internal/index"
	"github.com/doclama/doclama/internal/logger"
	"github.com/doclama/doclama/internal/session"
)

// newProviderRegistry returns a registry with every known provider
// factory registered.
func newProviderRegistry() (ai.Registry, error) {
	registry := ai.NewRegistry()

	if err := registry.Register("ollama", ollama.NewFactory()); err != nil {
		return nil, err
	}
	if err := registry.Register("openai", openai.NewFactory()); err != nil {
		return nil, err
	}

	return registry, nil
}

// setupProviders builds the completion and embedding backends from
// configuration. The embedder is nil when the local TF-IDF vectorizer
// is selected.
func setupProviders(cfg *config.Config) (ai.LLMProvider, ai.Embedder, error) {
	registry, err := newProviderRegistry()
	if err != nil {
		return nil, nil, err
	}

	name := cfg.AI.Provider
	if name == "" {
		name = "ollama"
	}
	if !registry.IsRegistered(name) {
		return nil, nil, fmt.Errorf("unsupported AI provider: %s", name)
	}

	provider, err := registry.GetWithConfig(name, providerConfig(cfg, name))
	if err != nil {
		return nil, nil, err
	}

	var embedder ai.Embedder = provider
	if cfg.AI.EmbedModel == "tfidf" {
		embedder = nil
	}

	return provider, embedder, nil
}

// providerConfig maps the application configuration onto the generic
// provider shape. The endpoint applies to Ollama only; its default
// value points at a local Ollama daemon and must not leak into other
// backends.
func providerConfig(cfg *config.Config, name string) *ai.ProviderConfig {
	pc := &ai.ProviderConfig{
		Name:         name,
		Type:         name,
		APIKey:       cfg.AI.APIKey,
		DefaultModel: cfg.AI.Model,
		Timeout:      cfg.AI.Timeout,
	}

	if name == "ollama" {
		pc.BaseURL = cfg.AI.Endpoint
	}
	if cfg.AI.EmbedModel != "" && cfg.AI.EmbedModel != "tfidf" {
		pc.EmbedModel = cfg.AI.EmbedModel
	}

	return pc
}

// setupSession constructs a ready session from configuration.
func setupSession(ctx context.Context, cfg *config.Config, log *logger.Logger) (*session.Session, error) {
	provider, embedder, err := setupProviders(cfg)
	if err != nil {
		return nil, err
	}

	return session.New(ctx, session.Options{
		CacheDir:        config.ExpandPath(cfg.Storage.CacheDir),
		SourceDir:       config.ExpandPath(cfg.Storage.SourceDir),
		Model:           cfg.AI.Model,
		Timeout:         cfg.AI.Timeout,
		TopK:            cfg.Retrieval.TopK,
		Provider:        provider,
		Embedder:        embedder,
		IncludePatterns: cfg.Retrieval.IncludePatterns,
		ExcludePatterns: cfg.Retrieval.ExcludePatterns,
		TFIDFDimensions: cfg.Retrieval.TFIDFDimensions,
		Logger:          log,
	})
}

// setupBuilder constructs an index builder for commands that rebuild
// without a full session.
func setupBuilder(cfg *config.Config, log *logger.Logger) (*index.Builder, error) {
	_, embedder, err := setupProviders(cfg)
	if err != nil {
		return nil, err
	}

	return index.NewBuilder(index.BuilderOptions{
		Embedder:        embedder,
		Model:           cfg.AI.Model,
		TFIDFDimensions: cfg.Retrieval.TFIDFDimensions,
		Logger:          log,
	}), nil
}
