package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/doclama/doclama/internal/ai"
	"github.com/doclama/doclama/internal/docstore"
	"github.com/doclama/doclama/internal/logger"
	"github.com/doclama/doclama/internal/vectorstore"
)

const (
	// VectorsFile is the persisted vector store artifact under the cache directory.
	VectorsFile = "vectors.json"

	// ManifestFile describes the build that produced the vectors.
	ManifestFile = "manifest.json"

	// DefaultTFIDFDimensions is the vector width of the local fallback vectorizer.
	DefaultTFIDFDimensions = 256

	embedBatchSize = 32
)

// Manifest describes a persisted index build.
type Manifest struct {
	Model         string                       `json:"model"`
	Dimension     int                          `json:"dimension"`
	DocumentCount int                          `json:"document_count"`
	ChunkCount    int                          `json:"chunk_count"`
	BuiltAt       time.Time                    `json:"built_at"`
	Vectorizer    *vectorstore.VectorizerState `json:"vectorizer,omitempty"`
}

// Index is a searchable vector index over document chunks.
type Index struct {
	store      *vectorstore.MemoryStore
	embedder   ai.Embedder
	vectorizer *vectorstore.TFIDFVectorizer
	manifest   Manifest
}

// BuilderOptions configures an index builder.
type BuilderOptions struct {
	// Embedder converts chunk text to vectors. When nil the builder
	// falls back to a local TF-IDF vectorizer fitted on the corpus.
	Embedder ai.Embedder

	// Model is recorded in the manifest for diagnostics.
	Model string

	// TFIDFDimensions sets the fallback vectorizer width.
	TFIDFDimensions int

	// Scanner overrides the default document scanner.
	Scanner *docstore.DocumentScanner

	// Logger receives build progress. Nil disables logging.
	Logger *logger.Logger
}

// Builder scans, embeds and persists document indexes.
type Builder struct {
	embedder   ai.Embedder
	model      string
	tfidfDims  int
	scanner    *docstore.DocumentScanner
	log        *logger.Logger
}

// NewBuilder creates an index builder.
func NewBuilder(opts BuilderOptions) *Builder {
	scanner := opts.Scanner
	if scanner == nil {
		scanner = docstore.NewDocumentScanner()
	}

	dims := opts.TFIDFDimensions
	if dims <= 0 {
		dims = DefaultTFIDFDimensions
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewWithCallback("index", func() bool { return false })
	}

	return &Builder{
		embedder:  opts.Embedder,
		model:     opts.Model,
		tfidfDims: dims,
		scanner:   scanner,
		log:       log,
	}
}

// Build scans sourceDir, embeds every section and persists the index
// under cacheDir. Nothing is written until embedding succeeds, and a
// failed persist removes whatever it managed to write.
func (b *Builder) Build(ctx context.Context, sourceDir, cacheDir string) (*Index, error) {
	if _, err := os.Stat(sourceDir); err != nil {
		return nil, classifyPathError(sourceDir, err)
	}

	start := time.Now()

	docs, err := b.scanner.ScanDirectory(sourceDir)
	if err != nil {
		return nil, classifyPathError(sourceDir, err)
	}

	b.log.Info("scanned %d documents from %s", len(docs), sourceDir)

	type chunk struct {
		id      string
		text    string
		source  string
		section string
	}

	var chunks []chunk
	for _, doc := range docs {
		for _, section := range doc.Sections {
			if section.WordCount == 0 {
				continue
			}
			chunks = append(chunks, chunk{
				id:      fmt.Sprintf("%s_%s", doc.ID, section.ID),
				text:    section.EmbedText(),
				source:  doc.Path,
				section: section.Heading,
			})
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.text
	}

	var vectors [][]float32
	var vectorizer *vectorstore.TFIDFVectorizer
	var state *vectorstore.VectorizerState
	dimension := 0

	switch {
	case b.embedder != nil:
		vectors, err = b.embedChunks(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) > 0 {
			dimension = len(vectors[0])
		}
	case len(texts) > 0:
		vectorizer = vectorstore.NewTFIDFVectorizer(b.tfidfDims)
		vectors, err = vectorizer.FitTransform(texts)
		if err != nil {
			return nil, err
		}
		state, err = vectorizer.ExportState()
		if err != nil {
			return nil, err
		}
		dimension = b.tfidfDims
	}

	store := vectorstore.NewMemoryStore()
	for i, c := range chunks {
		entry := vectorstore.VectorEntry{
			ID:        c.id,
			Text:      c.text,
			Vector:    vectors[i],
			Source:    c.source,
			Section:   c.section,
			Timestamp: time.Now(),
		}
		if err := store.Store(entry); err != nil {
			return nil, err
		}
	}

	manifest := Manifest{
		Model:         b.model,
		Dimension:     dimension,
		DocumentCount: len(docs),
		ChunkCount:    len(chunks),
		BuiltAt:       time.Now(),
		Vectorizer:    state,
	}

	if err := persist(cacheDir, store, manifest); err != nil {
		return nil, err
	}

	b.log.InfoWithFields("index built", []logger.Field{
		logger.F("chunks", len(chunks)),
		logger.Duration(time.Since(start)),
	})

	return &Index{
		store:      store,
		embedder:   b.embedder,
		vectorizer: vectorizer,
		manifest:   manifest,
	}, nil
}

// embedChunks embeds texts in batches to keep request sizes bounded.
func (b *Builder) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := b.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
		}

		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// persist writes the vectors and manifest into cacheDir. On any write
// failure the artifacts written so far are removed so a later run does
// not mistake a partial cache for a valid one.
func persist(cacheDir string, store *vectorstore.MemoryStore, manifest Manifest) error {
	created := false
	if _, err := os.Stat(cacheDir); errors.Is(err, fs.ErrNotExist) {
		created = true
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	cleanup := func() {
		_ = os.Remove(filepath.Join(cacheDir, VectorsFile))
		_ = os.Remove(filepath.Join(cacheDir, ManifestFile))
		if created {
			_ = os.Remove(cacheDir)
		}
	}

	if err := store.SaveToFile(filepath.Join(cacheDir, VectorsFile)); err != nil {
		cleanup()
		return err
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		cleanup()
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(cacheDir, ManifestFile), manifestData, 0o644); err != nil { //nolint:gosec // manifest is not sensitive
		cleanup()
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// Load reads a persisted index from cacheDir. The embedder must match
// the one used at build time; TF-IDF builds restore their fitted
// vectorizer from the manifest instead.
func Load(cacheDir string, embedder ai.Embedder) (*Index, error) {
	manifestPath := filepath.Join(cacheDir, ManifestFile)

	manifestData, err := os.ReadFile(manifestPath) //nolint:gosec // path is controlled by caller
	if err != nil {
		return nil, classifyPathError(manifestPath, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", manifestPath, err)
	}

	store := vectorstore.NewMemoryStore()
	vectorsPath := filepath.Join(cacheDir, VectorsFile)
	if err := store.LoadFromFile(vectorsPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewNotFoundError(vectorsPath, err)
		}
		return nil, err
	}

	var vectorizer *vectorstore.TFIDFVectorizer
	if manifest.Vectorizer != nil {
		vectorizer = vectorstore.NewTFIDFVectorizer(manifest.Vectorizer.Dimensions)
		if err := vectorizer.RestoreState(manifest.Vectorizer); err != nil {
			return nil, fmt.Errorf("failed to restore vectorizer: %w", err)
		}
	}

	return &Index{
		store:      store,
		embedder:   embedder,
		vectorizer: vectorizer,
		manifest:   manifest,
	}, nil
}

// Retrieve embeds the question and returns the topK most similar chunks.
func (ix *Index) Retrieve(ctx context.Context, question string, topK int) ([]vectorstore.SearchResult, error) {
	if ix.store.Size() == 0 {
		return []vectorstore.SearchResult{}, nil
	}

	var vector []float32
	var err error

	switch {
	case ix.vectorizer != nil:
		vector, err = ix.vectorizer.Vectorize(question)
	case ix.embedder != nil:
		var vectors [][]float32
		vectors, err = ix.embedder.Embed(ctx, []string{question})
		if err == nil && len(vectors) > 0 {
			vector = vectors[0]
		}
	default:
		return nil, fmt.Errorf("index has no embedder or vectorizer")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	return ix.store.Search(vector, topK)
}

// Manifest returns the manifest of the loaded or built index.
func (ix *Index) Manifest() Manifest {
	return ix.manifest
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	return ix.store.Size()
}
