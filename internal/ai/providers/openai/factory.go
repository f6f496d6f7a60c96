package openai

import (
	"github.com/doclama/doclama/internal/ai"
)

// Factory implements the ProviderFactory interface for OpenAI.
type Factory struct{}

// NewFactory creates a new OpenAI provider factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new OpenAI provider instance with the given config.
func (f *Factory) Create(config *ai.ProviderConfig) (ai.Provider, error) {
	if config == nil {
		return nil, ai.NewConfigurationError("openai", "config", "configuration with an API key is required")
	}

	return New(FromProviderConfig(config))
}

// Type returns the provider type this factory creates.
func (f *Factory) Type() string {
	return "openai"
}

// ValidateConfig validates configuration for this provider type.
func (f *Factory) ValidateConfig(config *ai.ProviderConfig) error {
	if config == nil {
		return ai.NewConfigurationError("openai", "config", "configuration is required")
	}

	if config.Type != "" && config.Type != "openai" {
		return ai.NewConfigurationError("openai", "type", "invalid provider type: expected 'openai'")
	}

	return FromProviderConfig(config).Validate()
}

// DefaultConfig returns a default configuration.
func (f *Factory) DefaultConfig() *ai.ProviderConfig {
	return DefaultConfig().ToProviderConfig()
}
