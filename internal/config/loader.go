package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.doclama.yaml",               // Project-specific config (highest priority)
	"~/.config/doclama/config.yaml", // User config
	"/etc/doclama/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.doclama.yaml
// 4. ~/.config/doclama/config.yaml
// 5. /etc/doclama/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from standard paths in reverse priority order so higher
		// priority files overwrite lower ones.
		paths := make([]string, len(l.configPaths))
		copy(paths, l.configPaths)
		for i := len(paths)/2 - 1; i >= 0; i-- {
			opp := len(paths) - 1 - i
			paths[i], paths[opp] = paths[opp], paths[i]
		}

		for _, path := range paths {
			expandedPath := expandPath(path)
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// AI Config
		"DOCLAMA_AI_PROVIDER":    func(v string) error { config.AI.Provider = v; return nil },
		"DOCLAMA_AI_MODEL":       func(v string) error { config.AI.Model = v; return nil },
		"DOCLAMA_AI_EMBED_MODEL": func(v string) error { config.AI.EmbedModel = v; return nil },
		"DOCLAMA_AI_ENDPOINT":    func(v string) error { config.AI.Endpoint = v; return nil },
		"DOCLAMA_AI_API_KEY":     func(v string) error { config.AI.APIKey = v; return nil },
		"DOCLAMA_AI_TIMEOUT":     func(v string) error { return parseDuration(v, &config.AI.Timeout) },

		// Storage Config
		"DOCLAMA_STORAGE_CACHE_DIR":  func(v string) error { config.Storage.CacheDir = v; return nil },
		"DOCLAMA_STORAGE_SOURCE_DIR": func(v string) error { config.Storage.SourceDir = v; return nil },

		// Retrieval Config
		"DOCLAMA_RETRIEVAL_TOP_K":            func(v string) error { return parseInt(v, &config.Retrieval.TopK) },
		"DOCLAMA_RETRIEVAL_TFIDF_DIMENSIONS": func(v string) error { return parseInt(v, &config.Retrieval.TFIDFDimensions) },

		// Output Config
		"DOCLAMA_OUTPUT_COLOR_MODE":   func(v string) error { config.Output.ColorMode = v; return nil },
		"DOCLAMA_OUTPUT_VERBOSE":      func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"DOCLAMA_OUTPUT_SHOW_TIMINGS": func(v string) error { return parseBool(v, &config.Output.ShowTimings) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Comma-separated pattern lists
	if patterns := os.Getenv("DOCLAMA_RETRIEVAL_INCLUDE_PATTERNS"); patterns != "" {
		config.Retrieval.IncludePatterns = splitPatterns(patterns)
	}
	if patterns := os.Getenv("DOCLAMA_RETRIEVAL_EXCLUDE_PATTERNS"); patterns != "" {
		config.Retrieval.ExcludePatterns = splitPatterns(patterns)
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// ExpandPath expands ~ in configured directories.
func ExpandPath(path string) string {
	return expandPath(path)
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitPatterns(value string) []string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func parseDuration(value string, target *time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*target = d
	return nil
}

func parseInt(value string, target *int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*target = n
	return nil
}

func parseBool(value string, target *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	*target = b
	return nil
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination.
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeAIConfig(&dst.AI, &src.AI)
	mergeStorageConfig(&dst.Storage, &src.Storage)
	mergeRetrievalConfig(&dst.Retrieval, &src.Retrieval)
	mergeOutputConfig(&dst.Output, &src.Output)
}

func mergeAIConfig(dst, src *AIConfig) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.EmbedModel != "" {
		dst.EmbedModel = src.EmbedModel
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
}

func mergeStorageConfig(dst, src *StorageConfig) {
	if src.CacheDir != "" {
		dst.CacheDir = src.CacheDir
	}
	if src.SourceDir != "" {
		dst.SourceDir = src.SourceDir
	}
}

func mergeRetrievalConfig(dst, src *RetrievalConfig) {
	if src.TopK != 0 {
		dst.TopK = src.TopK
	}
	if src.TFIDFDimensions != 0 {
		dst.TFIDFDimensions = src.TFIDFDimensions
	}
	if len(src.IncludePatterns) > 0 {
		dst.IncludePatterns = src.IncludePatterns
	}
	if len(src.ExcludePatterns) > 0 {
		dst.ExcludePatterns = src.ExcludePatterns
	}
}

func mergeOutputConfig(dst, src *OutputConfig) {
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.Verbose {
		dst.Verbose = src.Verbose
	}
	if src.ShowTimings {
		dst.ShowTimings = src.ShowTimings
	}
}
