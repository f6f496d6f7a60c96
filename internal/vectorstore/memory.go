package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// NewMemoryStore creates a new in-memory vector store
func NewMemoryStore(options ...MemoryStoreOption) *MemoryStore {
	opts := MemoryStoreOptions{
		MaxVectors:       100000,
		NormalizeVectors: false,
	}

	for _, option := range options {
		option(&opts)
	}

	return &MemoryStore{
		vectors: make(map[string]VectorEntry),
		options: opts,
	}
}

// Store adds a vector entry to the store
func (ms *MemoryStore) Store(entry VectorEntry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.options.MaxVectors > 0 && len(ms.vectors) >= ms.options.MaxVectors {
		if _, exists := ms.vectors[entry.ID]; !exists {
			return fmt.Errorf("vector store is full (max %d vectors)", ms.options.MaxVectors)
		}
	}

	if ms.options.NormalizeVectors {
		entry.Vector = NormalizeVector(entry.Vector)
	}

	ms.vectors[entry.ID] = entry
	return nil
}

// Search finds the most similar vectors using cosine similarity
func (ms *MemoryStore) Search(vector []float32, topK int) ([]SearchResult, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if len(ms.vectors) == 0 {
		return []SearchResult{}, nil
	}

	queryVector := vector
	if ms.options.NormalizeVectors {
		queryVector = NormalizeVector(vector)
	}

	results := make([]SearchResult, 0, len(ms.vectors))
	for _, entry := range ms.vectors {
		results = append(results, SearchResult{
			ID:      entry.ID,
			Score:   CosineSimilarity(queryVector, entry.Vector),
			Text:    entry.Text,
			Source:  entry.Source,
			Section: entry.Section,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if topK > len(results) {
		topK = len(results)
	}

	return results[:topK], nil
}

// Delete removes a vector from the store
func (ms *MemoryStore) Delete(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.vectors[id]; !exists {
		return fmt.Errorf("vector with ID %s not found", id)
	}

	delete(ms.vectors, id)
	return nil
}

// Close shuts down the vector store and saves if persistence is enabled
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.options.PersistenceFile != "" {
		return ms.saveToFileUnsafe(ms.options.PersistenceFile)
	}

	return nil
}

// SaveToFile saves the vector store to a JSON file
func (ms *MemoryStore) SaveToFile(filename string) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return ms.saveToFileUnsafe(filename)
}

// saveToFileUnsafe saves without acquiring locks (internal use)
func (ms *MemoryStore) saveToFileUnsafe(filename string) error {
	file, err := os.Create(filename) // #nosec G304 -- filename is controlled by caller
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(ms.vectors); err != nil {
		return fmt.Errorf("failed to encode vectors: %w", err)
	}

	return nil
}

// LoadFromFile loads the vector store from a JSON file
func (ms *MemoryStore) LoadFromFile(filename string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	file, err := os.Open(filename) // #nosec G304 -- filename is controlled by caller
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer func() { _ = file.Close() }()

	decoder := json.NewDecoder(file)
	vectors := make(map[string]VectorEntry)

	if err := decoder.Decode(&vectors); err != nil {
		return fmt.Errorf("failed to decode vectors: %w", err)
	}

	ms.vectors = vectors
	return nil
}

// Size returns the number of vectors in the store
func (ms *MemoryStore) Size() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.vectors)
}

// Get retrieves a vector entry by ID
func (ms *MemoryStore) Get(id string) (VectorEntry, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, exists := ms.vectors[id]
	return entry, exists
}

// List returns all vector IDs in the store
func (ms *MemoryStore) List() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := make([]string, 0, len(ms.vectors))
	for id := range ms.vectors {
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids
}

// Clear removes all vectors from the store
func (ms *MemoryStore) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.vectors = make(map[string]VectorEntry)
}
