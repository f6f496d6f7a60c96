package config

// SampleConfig returns a full example configuration with comments.
func SampleConfig() string {
	return `# doclama configuration
version: "1.0"

ai:
  # Completion backend: ollama or openai
  provider: ollama
  model: llama3.1
  # Embedding model. Use "tfidf" for a fully local index without an
  # embedding backend.
  embed_model: nomic-embed-text
  endpoint: http://localhost:11434
  # Required for the openai provider. Prefer DOCLAMA_AI_API_KEY.
  api_key: ""
  timeout: 120s

storage:
  # Persisted index artifacts (vectors.json, manifest.json)
  cache_dir: ~/.cache/doclama
  # Documents to scan and index
  source_dir: ./docs

retrieval:
  # Chunks retrieved per query
  top_k: 4
  # Width of the local tfidf vectorizer
  tfidf_dimensions: 256
  # File globs to index; defaults to markdown and plain text
  include_patterns: []
  # Directory names to skip while scanning
  exclude_patterns: []

output:
  # auto, always or never
  color_mode: auto
  verbose: false
  show_timings: true
`
}

// MinimalSampleConfig returns a compact example configuration.
func MinimalSampleConfig() string {
	return `version: "1.0"
ai:
  provider: ollama
  model: llama3.1
storage:
  source_dir: ./docs
`
}
