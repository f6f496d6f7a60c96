package ollama

import (
	"time"

	"github.com/doclama/doclama/internal/ai"
)

// Config holds Ollama-specific configuration.
type Config struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string `json:"base_url"`

	// DefaultModel is the generation model used when a request names none.
	DefaultModel string `json:"default_model"`

	// EmbedModel is the model used for embedding requests.
	EmbedModel string `json:"embed_model"`

	// Timeout for HTTP requests.
	Timeout time.Duration `json:"timeout"`

	// MaxTokens is the maximum context window size.
	MaxTokens int `json:"max_tokens"`

	// DefaultTemperature for generation requests.
	DefaultTemperature float64 `json:"default_temperature"`
}

// DefaultConfig returns a default Ollama configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "http://localhost:11434",
		DefaultModel:       "llama3.1",
		EmbedModel:         "nomic-embed-text",
		Timeout:            120 * time.Second,
		MaxTokens:          4096,
		DefaultTemperature: 0.7,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ai.NewConfigurationError("ollama", "base_url", "base URL is required")
	}

	if c.DefaultModel == "" {
		return ai.NewConfigurationError("ollama", "default_model", "default model is required")
	}

	if c.Timeout <= 0 {
		return ai.NewConfigurationError("ollama", "timeout", "timeout must be positive")
	}

	if c.MaxTokens <= 0 {
		return ai.NewConfigurationError("ollama", "max_tokens", "max tokens must be positive")
	}

	if c.DefaultTemperature < 0 || c.DefaultTemperature > 1 {
		return ai.NewConfigurationError("ollama", "default_temperature", "temperature must be between 0 and 1")
	}

	return nil
}

// ToProviderConfig converts the Ollama config to a generic provider config.
func (c *Config) ToProviderConfig() *ai.ProviderConfig {
	return &ai.ProviderConfig{
		Name:               "ollama",
		Type:               "ollama",
		BaseURL:            c.BaseURL,
		DefaultModel:       c.DefaultModel,
		EmbedModel:         c.EmbedModel,
		MaxTokens:          c.MaxTokens,
		DefaultTemperature: c.DefaultTemperature,
		Timeout:            c.Timeout,
	}
}

// FromProviderConfig creates an Ollama config from a generic provider config.
func FromProviderConfig(pc *ai.ProviderConfig) *Config {
	config := DefaultConfig()

	if pc.BaseURL != "" {
		config.BaseURL = pc.BaseURL
	}

	if pc.DefaultModel != "" {
		config.DefaultModel = pc.DefaultModel
	}

	if pc.EmbedModel != "" {
		config.EmbedModel = pc.EmbedModel
	}

	if pc.MaxTokens > 0 {
		config.MaxTokens = pc.MaxTokens
	}

	if pc.DefaultTemperature >= 0 && pc.DefaultTemperature <= 1 {
		config.DefaultTemperature = pc.DefaultTemperature
	}

	if pc.Timeout > 0 {
		config.Timeout = pc.Timeout
	}

	return config
}
