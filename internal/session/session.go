package session

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/doclama/doclama/internal/ai"
	"github.com/doclama/doclama/internal/ai/providers/ollama"
	"github.com/doclama/doclama/internal/docstore"
	"github.com/doclama/doclama/internal/index"
	"github.com/doclama/doclama/internal/logger"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 4

// Options configures a session.
type Options struct {
	// CacheDir holds the persisted index artifacts.
	CacheDir string

	// SourceDir is scanned for documents on rebuild.
	SourceDir string

	// Model is the completion model name.
	Model string

	// Timeout bounds each backend request. Required.
	Timeout time.Duration

	// TopK is the number of chunks retrieved per query. Defaults to
	// DefaultTopK when zero.
	TopK int

	// Provider overrides the completion backend. When nil an Ollama
	// provider is constructed from Model and Timeout.
	Provider ai.LLMProvider

	// Embedder overrides the embedding backend. When nil and Provider
	// is also nil, the constructed Ollama provider embeds; when only
	// Provider is set, the index falls back to a local vectorizer.
	Embedder ai.Embedder

	// IncludePatterns and ExcludePatterns override the scanner globs.
	IncludePatterns []string
	ExcludePatterns []string

	// TFIDFDimensions sets the local fallback vectorizer width.
	TFIDFDimensions int

	// Logger receives progress output. Nil disables logging.
	Logger *logger.Logger
}

// Session owns a loaded document index and a completion backend, and
// records load and per-query timings.
type Session struct {
	opts     Options
	index    *index.Index
	provider ai.LLMProvider
	log      *logger.Logger

	loadDuration float64

	mu             sync.Mutex
	queryDurations []float64
}

// New builds or loads the document index and returns a ready session.
// The cache is rebuilt when it is missing or when any source file is
// newer than it; otherwise the persisted index is loaded. The elapsed
// wall-clock time of whichever path ran is recorded once as the load
// duration.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		return nil, NewInvalidArgumentError("timeout", "must be positive")
	}

	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewWithCallback("session", func() bool { return false })
	}

	provider := opts.Provider
	embedder := opts.Embedder

	if provider == nil {
		config := ollama.DefaultConfig()
		if opts.Model != "" {
			config.DefaultModel = opts.Model
		}
		config.Timeout = opts.Timeout

		ollamaProvider, err := ollama.New(config)
		if err != nil {
			return nil, err
		}

		provider = ollamaProvider
		if embedder == nil {
			embedder = ollamaProvider
		}
	}

	start := time.Now()

	idx, err := loadOrBuild(ctx, opts, embedder, log)
	if err != nil {
		return nil, err
	}

	return &Session{
		opts:         opts,
		index:        idx,
		provider:     provider,
		log:          log,
		loadDuration: time.Since(start).Seconds(),
	}, nil
}

func loadOrBuild(ctx context.Context, opts Options, embedder ai.Embedder, log *logger.Logger) (*index.Index, error) {
	rebuild := false

	if _, err := os.Stat(opts.CacheDir); errors.Is(err, fs.ErrNotExist) {
		rebuild = true
	} else if err != nil {
		return nil, index.NewAccessError(opts.CacheDir, err)
	} else {
		stale, err := index.NeedsRebuild(opts.CacheDir, opts.SourceDir)
		if err != nil {
			return nil, err
		}
		rebuild = stale
	}

	if rebuild {
		log.Info("building index from %s", opts.SourceDir)
		builder := index.NewBuilder(index.BuilderOptions{
			Embedder:        embedder,
			Model:           opts.Model,
			TFIDFDimensions: opts.TFIDFDimensions,
			Scanner:         docstore.NewDocumentScannerWithPatterns(opts.IncludePatterns, opts.ExcludePatterns),
			Logger:          log,
		})
		return builder.Build(ctx, opts.SourceDir, opts.CacheDir)
	}

	log.Info("loading index from %s", opts.CacheDir)
	return index.Load(opts.CacheDir, embedder)
}

// Query retrieves context for the question, asks the completion
// backend and returns the answer unmodified. The wall-clock duration,
// rounded to one decimal place in seconds, is appended to the query
// log. Collaborator errors propagate unchanged.
func (s *Session) Query(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", NewInvalidArgumentError("question", "must not be empty")
	}

	start := time.Now()

	chunks, err := s.index.Retrieve(ctx, question, s.opts.TopK)
	if err != nil {
		return "", err
	}

	prompt := buildQueryPrompt(question, chunks)

	req := &ai.CompletionRequest{
		Prompt:       prompt.String(),
		SystemPrompt: prompt.SystemPrompt,
	}

	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	elapsed := roundTenth(time.Since(start).Seconds())

	s.mu.Lock()
	s.queryDurations = append(s.queryDurations, elapsed)
	s.mu.Unlock()

	s.log.DebugWithFields("query answered", []logger.Field{
		logger.F("chunks", len(chunks)),
		logger.F("seconds", elapsed),
	})

	return resp.Content, nil
}

// LoadDuration returns the seconds spent building or loading the index.
func (s *Session) LoadDuration() float64 {
	return s.loadDuration
}

// QueryDurations returns a snapshot of the per-query durations in
// completion order.
func (s *Session) QueryDurations() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	durations := make([]float64, len(s.queryDurations))
	copy(durations, s.queryDurations)
	return durations
}

// Index exposes the loaded index for diagnostics.
func (s *Session) Index() *index.Index {
	return s.index
}

// Close releases the completion backend.
func (s *Session) Close() error {
	return s.provider.Close()
}

func roundTenth(seconds float64) float64 {
	return math.Round(seconds*10) / 10
}
