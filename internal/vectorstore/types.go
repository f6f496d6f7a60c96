package vectorstore

import (
	"sync"
	"time"
)

// VectorEntry represents a stored document chunk with its embedding
type VectorEntry struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Vector    []float32         `json:"vector"`
	Source    string            `json:"source,omitempty"`
	Section   string            `json:"section,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// MemoryStoreOptions configures the in-memory vector store
type MemoryStoreOptions struct {
	PersistenceFile  string
	MaxVectors       int
	NormalizeVectors bool
}

// MemoryStoreOption is a function type for configuring MemoryStore
type MemoryStoreOption func(*MemoryStoreOptions)

// WithPersistence enables disk persistence for the memory store
func WithPersistence(filename string) MemoryStoreOption {
	return func(opts *MemoryStoreOptions) {
		opts.PersistenceFile = filename
	}
}

// WithMaxVectors limits the number of vectors stored
func WithMaxVectors(maxVectors int) MemoryStoreOption {
	return func(opts *MemoryStoreOptions) {
		opts.MaxVectors = maxVectors
	}
}

// WithNormalization enables automatic vector normalization
func WithNormalization() MemoryStoreOption {
	return func(opts *MemoryStoreOptions) {
		opts.NormalizeVectors = true
	}
}

// MemoryStore implements VectorStore using in-memory storage
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string]VectorEntry
	options MemoryStoreOptions
}

// TFIDFVectorizer implements text vectorization using TF-IDF
type TFIDFVectorizer struct {
	mu            sync.RWMutex
	dimensions    int
	vocabulary    map[string]int
	idf           []float32
	documentCount int
	fitted        bool
	minWordLength int
	maxWordLength int
	stopWords     map[string]bool
}

// VectorizerState is the persistable portion of a fitted vectorizer.
// It lets a loaded index vectorize queries without refitting the corpus.
type VectorizerState struct {
	Dimensions    int            `json:"dimensions"`
	Vocabulary    map[string]int `json:"vocabulary"`
	IDF           []float32      `json:"idf"`
	DocumentCount int            `json:"document_count"`
}
