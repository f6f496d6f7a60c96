package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", cfg.Version)
	}

	if cfg.AI.Provider != "ollama" {
		t.Errorf("Expected AI provider ollama, got %s", cfg.AI.Provider)
	}

	if cfg.AI.Model != "llama3.1" {
		t.Errorf("Expected model llama3.1, got %s", cfg.AI.Model)
	}

	if cfg.AI.Timeout != 120*time.Second {
		t.Errorf("Expected timeout 120s, got %v", cfg.AI.Timeout)
	}

	if cfg.Retrieval.TopK != 4 {
		t.Errorf("Expected top_k 4, got %d", cfg.Retrieval.TopK)
	}

	if cfg.Output.ColorMode != "auto" {
		t.Errorf("Expected color mode auto, got %s", cfg.Output.ColorMode)
	}
}

func TestConfigValidation(t *testing.T) {
	validBase := func() *Config {
		return DefaultConfig()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid AI provider",
			mutate:  func(c *Config) { c.AI.Provider = "invalid" },
			wantErr: true,
			errMsg:  "invalid AI provider",
		},
		{
			name:    "openai without api key",
			mutate:  func(c *Config) { c.AI.Provider = "openai" },
			wantErr: true,
			errMsg:  "requires an API key",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.AI.Timeout = 0 },
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name:    "zero top_k",
			mutate:  func(c *Config) { c.Retrieval.TopK = 0 },
			wantErr: true,
			errMsg:  "top_k must be positive",
		},
		{
			name:    "invalid color mode",
			mutate:  func(c *Config) { c.Output.ColorMode = "rainbow" },
			wantErr: true,
			errMsg:  "invalid color mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want containing %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigMerging(t *testing.T) {
	dst := DefaultConfig()
	src := &Config{
		AI: AIConfig{
			EmbedModel: "tfidf",
			Timeout:    10 * time.Second,
		},
		Storage: StorageConfig{
			SourceDir: "/srv/docs",
		},
		Retrieval: RetrievalConfig{
			TopK: 8,
		},
	}

	mergeConfigs(dst, src)

	if dst.AI.EmbedModel != "tfidf" {
		t.Errorf("embed model = %s, want tfidf", dst.AI.EmbedModel)
	}
	if dst.AI.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", dst.AI.Timeout)
	}
	if dst.AI.Model != "llama3.1" {
		t.Errorf("model = %s, want default preserved", dst.AI.Model)
	}
	if dst.Storage.SourceDir != "/srv/docs" {
		t.Errorf("source dir = %s, want /srv/docs", dst.Storage.SourceDir)
	}
	if dst.Storage.CacheDir != "~/.cache/doclama" {
		t.Errorf("cache dir = %s, want default preserved", dst.Storage.CacheDir)
	}
	if dst.Retrieval.TopK != 8 {
		t.Errorf("top_k = %d, want 8", dst.Retrieval.TopK)
	}
}
