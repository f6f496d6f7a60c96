package config

import (
	"fmt"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version   string          `yaml:"version" json:"version"`
	AI        AIConfig        `yaml:"ai" json:"ai"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// AIConfig configures the completion and embedding backends
type AIConfig struct {
	Provider   string        `yaml:"provider" json:"provider"`       // ollama|openai
	Model      string        `yaml:"model" json:"model"`             // completion model name
	EmbedModel string        `yaml:"embed_model" json:"embed_model"` // embedding model name, or "tfidf" for the local vectorizer
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`       // API endpoint URL
	APIKey     string        `yaml:"api_key" json:"api_key"`         // API key (openai)
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`         // request timeout
}

// StorageConfig configures index persistence and document sources
type StorageConfig struct {
	CacheDir  string `yaml:"cache_dir" json:"cache_dir"`   // persisted index location
	SourceDir string `yaml:"source_dir" json:"source_dir"` // documents to index
}

// RetrievalConfig configures chunk retrieval
type RetrievalConfig struct {
	TopK            int      `yaml:"top_k" json:"top_k"`                       // chunks per query
	TFIDFDimensions int      `yaml:"tfidf_dimensions" json:"tfidf_dimensions"` // fallback vectorizer width
	IncludePatterns []string `yaml:"include_patterns" json:"include_patterns"` // file globs to index
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"` // directories to skip
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	ColorMode   string `yaml:"color_mode" json:"color_mode"`     // auto|always|never
	Verbose     bool   `yaml:"verbose" json:"verbose"`           // default verbosity
	ShowTimings bool   `yaml:"show_timings" json:"show_timings"` // print load/query durations
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		AI: AIConfig{
			Provider:   "ollama",
			Model:      "llama3.1",
			EmbedModel: "nomic-embed-text",
			Endpoint:   "http://localhost:11434",
			APIKey:     "",
			Timeout:    120 * time.Second,
		},
		Storage: StorageConfig{
			CacheDir:  "~/.cache/doclama",
			SourceDir: "./docs",
		},
		Retrieval: RetrievalConfig{
			TopK:            4,
			TFIDFDimensions: 256,
			IncludePatterns: nil,
			ExcludePatterns: nil,
		},
		Output: OutputConfig{
			ColorMode:   "auto",
			Verbose:     false,
			ShowTimings: true,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAIConfig(); err != nil {
		return err
	}
	if err := c.validateRetrievalConfig(); err != nil {
		return err
	}
	return c.validateOutputConfig()
}

func (c *Config) validateAIConfig() error {
	if c.AI.Provider != "" {
		validProviders := map[string]bool{
			"ollama": true,
			"openai": true,
		}
		if !validProviders[c.AI.Provider] {
			return fmt.Errorf("invalid AI provider: %s (must be one of: ollama, openai)", c.AI.Provider)
		}
	}
	if c.AI.Provider == "openai" && c.AI.APIKey == "" {
		return fmt.Errorf("openai provider requires an API key")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive, got %v", c.AI.Timeout)
	}
	return nil
}

func (c *Config) validateRetrievalConfig() error {
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.TFIDFDimensions <= 0 {
		return fmt.Errorf("tfidf_dimensions must be positive, got %d", c.Retrieval.TFIDFDimensions)
	}
	return nil
}

func (c *Config) validateOutputConfig() error {
	if c.Output.ColorMode != "" {
		validModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}
