package vectorstore

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// NewTFIDFVectorizer creates a new TF-IDF vectorizer with specified dimensions
func NewTFIDFVectorizer(dimensions int) *TFIDFVectorizer {
	return &TFIDFVectorizer{
		dimensions:    dimensions,
		vocabulary:    make(map[string]int),
		minWordLength: 2,
		maxWordLength: 50,
		stopWords:     getDefaultStopWords(),
	}
}

// Dimension returns the vector dimension
func (v *TFIDFVectorizer) Dimension() int {
	return v.dimensions
}

// Fit trains the vectorizer on a corpus of documents
func (v *TFIDFVectorizer) Fit(documents []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(documents) == 0 {
		return fmt.Errorf("cannot fit on empty document corpus")
	}

	v.vocabulary = make(map[string]int)
	v.idf = nil
	v.documentCount = len(documents)
	v.fitted = false

	// Build vocabulary and document frequencies
	wordDocCounts := make(map[string]int)

	for _, doc := range documents {
		words := v.tokenize(doc)
		uniqueWords := make(map[string]bool)

		for _, word := range words {
			if !v.isValidWord(word) {
				continue
			}
			uniqueWords[word] = true
		}

		for word := range uniqueWords {
			wordDocCounts[word]++
		}
	}

	type wordFreq struct {
		word  string
		count int
	}

	wordFreqs := make([]wordFreq, 0, len(wordDocCounts))
	for word, count := range wordDocCounts {
		wordFreqs = append(wordFreqs, wordFreq{word: word, count: count})
	}

	// Most common words first; ties broken alphabetically so the
	// vocabulary is stable across rebuilds of the same corpus.
	sort.Slice(wordFreqs, func(i, j int) bool {
		if wordFreqs[i].count != wordFreqs[j].count {
			return wordFreqs[i].count > wordFreqs[j].count
		}
		return wordFreqs[i].word < wordFreqs[j].word
	})

	vocabSize := v.dimensions
	if len(wordFreqs) < vocabSize {
		vocabSize = len(wordFreqs)
	}

	for i := 0; i < vocabSize; i++ {
		v.vocabulary[wordFreqs[i].word] = i
	}

	v.idf = make([]float32, len(v.vocabulary))
	for word, index := range v.vocabulary {
		docCount := wordDocCounts[word]
		idfValue := float32(math.Log(float64(v.documentCount) / float64(docCount)))
		v.idf[index] = idfValue
	}

	v.fitted = true
	return nil
}

// FitTransform fits the vectorizer and transforms the documents
func (v *TFIDFVectorizer) FitTransform(documents []string) ([][]float32, error) {
	if err := v.Fit(documents); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(documents))
	for i, doc := range documents {
		vector, err := v.Vectorize(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to vectorize document %d: %w", i, err)
		}
		vectors[i] = vector
	}

	return vectors, nil
}

// Vectorize converts text to a TF-IDF vector
func (v *TFIDFVectorizer) Vectorize(text string) ([]float32, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.fitted {
		return nil, fmt.Errorf("vectorizer must be fitted before vectorizing")
	}

	vector := make([]float32, v.dimensions)

	words := v.tokenize(text)
	wordCounts := make(map[string]int)
	totalWords := 0

	for _, word := range words {
		if !v.isValidWord(word) {
			continue
		}
		wordCounts[word]++
		totalWords++
	}

	if totalWords == 0 {
		return vector, nil
	}

	for word, count := range wordCounts {
		if index, exists := v.vocabulary[word]; exists {
			tf := float32(count) / float32(totalWords)
			vector[index] = tf * v.idf[index]
		}
	}

	return vector, nil
}

// ExportState returns the fitted state for persistence.
func (v *TFIDFVectorizer) ExportState() (*VectorizerState, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.fitted {
		return nil, fmt.Errorf("vectorizer must be fitted before exporting state")
	}

	vocab := make(map[string]int, len(v.vocabulary))
	for word, index := range v.vocabulary {
		vocab[word] = index
	}

	idf := make([]float32, len(v.idf))
	copy(idf, v.idf)

	return &VectorizerState{
		Dimensions:    v.dimensions,
		Vocabulary:    vocab,
		IDF:           idf,
		DocumentCount: v.documentCount,
	}, nil
}

// RestoreState rebuilds a fitted vectorizer from persisted state.
func (v *TFIDFVectorizer) RestoreState(state *VectorizerState) error {
	if state == nil {
		return fmt.Errorf("vectorizer state is required")
	}

	if state.Dimensions <= 0 {
		return fmt.Errorf("invalid vectorizer dimensions: %d", state.Dimensions)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.dimensions = state.Dimensions
	v.vocabulary = make(map[string]int, len(state.Vocabulary))
	for word, index := range state.Vocabulary {
		v.vocabulary[word] = index
	}

	v.idf = make([]float32, len(state.IDF))
	copy(v.idf, state.IDF)

	v.documentCount = state.DocumentCount
	v.fitted = true
	return nil
}

// tokenize splits text into words
func (v *TFIDFVectorizer) tokenize(text string) []string {
	text = strings.ToLower(text)

	re := regexp.MustCompile(`[^\p{L}\p{N}]+`)
	text = re.ReplaceAllString(text, " ")

	return strings.Fields(text)
}

// isValidWord checks if a word should be included in the vocabulary
func (v *TFIDFVectorizer) isValidWord(word string) bool {
	if len(word) < v.minWordLength || len(word) > v.maxWordLength {
		return false
	}

	if v.stopWords[word] {
		return false
	}

	if regexp.MustCompile(`^\d+$`).MatchString(word) {
		return false
	}

	return true
}

// getDefaultStopWords returns a set of common English stop words
func getDefaultStopWords() map[string]bool {
	stopWords := []string{
		"a", "an", "and", "are", "as", "at", "be", "been", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "that", "the", "to",
		"was", "will", "with", "this", "but", "they", "have", "had",
		"what", "said", "each", "which", "she", "do", "how", "their", "if",
		"up", "out", "many", "then", "them", "these", "so", "some", "her",
		"would", "make", "like", "him", "into", "time", "two", "more", "go",
		"no", "way", "could", "my", "than", "first", "call", "who",
		"now", "find", "down", "day", "did", "get", "come", "made", "may", "part",
	}

	stopWordSet := make(map[string]bool)
	for _, word := range stopWords {
		stopWordSet[word] = true
	}

	return stopWordSet
}

// AddStopWords adds additional stop words to filter out
func (v *TFIDFVectorizer) AddStopWords(words []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, word := range words {
		v.stopWords[strings.ToLower(word)] = true
	}
}

// VocabularySize returns the current vocabulary size
func (v *TFIDFVectorizer) VocabularySize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.vocabulary)
}

// IsFitted returns whether the vectorizer has been fitted
func (v *TFIDFVectorizer) IsFitted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fitted
}
