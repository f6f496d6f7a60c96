package tests

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/doclama/doclama/internal/ai"
	"github.com/doclama/doclama/internal/index"
	"github.com/doclama/doclama/internal/session"
)

// MockLLMProvider answers ring-lore questions from the retrieved context.
type MockLLMProvider struct {
	completions int
}

func (m *MockLLMProvider) Name() string {
	return "mock"
}

func (m *MockLLMProvider) Complete(_ context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	m.completions++

	content := "I do not know."
	if strings.Contains(req.Prompt, "Sauron") {
		content = "Sauron"
	}

	return &ai.CompletionResponse{
		Content:      content,
		FinishReason: "stop",
		Model:        "mock",
		CreatedAt:    time.Now(),
	}, nil
}

func (m *MockLLMProvider) CompleteStream(ctx context.Context, req *ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan ai.StreamChunk, 2)
	ch <- ai.StreamChunk{Content: resp.Content}
	ch <- ai.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (m *MockLLMProvider) CountTokens(text string) (int, error) {
	return len(text) / 4, nil
}

func (m *MockLLMProvider) MaxTokens() int {
	return 4096
}

func (m *MockLLMProvider) SupportsStreaming() bool {
	return true
}

func (m *MockLLMProvider) ValidateConfig() error {
	return nil
}

func (m *MockLLMProvider) Close() error {
	return nil
}

func writeCorpus(t *testing.T, dir string) {
	t.Helper()

	lore := `# Ring Lore

## The One Ring

Sauron forged the One Ring in the fires of Mount Doom and owns it still.

## The Shire

Hobbits live quiet lives in the Shire and care little for rings of power.
`
	if err := os.WriteFile(filepath.Join(dir, "lore.md"), []byte(lore), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()

	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func testOptions(sourceDir, cacheDir string, provider ai.LLMProvider) session.Options {
	return session.Options{
		CacheDir:  cacheDir,
		SourceDir: sourceDir,
		Timeout:   30 * time.Second,
		Provider:  provider,
	}
}

func TestMissingCacheTriggersRebuild(t *testing.T) {
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	sess, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	for _, name := range []string{index.VectorsFile, index.ManifestFile} {
		if _, err := os.Stat(filepath.Join(cacheDir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}

	if sess.Index().Size() == 0 {
		t.Error("expected a populated index after rebuild")
	}
}

func TestFreshCacheTakesReloadPath(t *testing.T) {
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	first, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	defer first.Close()

	builtAt := first.Index().Manifest().BuiltAt

	// Source files predate the freshly written cache.
	backdate(t, filepath.Join(sourceDir, "lore.md"), time.Hour)
	backdate(t, sourceDir, time.Hour)

	// Reload twice; neither run may rewrite the cache.
	for i := 0; i < 2; i++ {
		sess, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
		if err != nil {
			t.Fatalf("reload %d: %v", i, err)
		}

		if !sess.Index().Manifest().BuiltAt.Equal(builtAt) {
			t.Errorf("reload %d: manifest rebuilt, BuiltAt %v != %v", i, sess.Index().Manifest().BuiltAt, builtAt)
		}
		sess.Close()
	}
}

func TestTouchedSourceTriggersRebuild(t *testing.T) {
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	first, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	first.Close()

	builtAt := first.Index().Manifest().BuiltAt

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(sourceDir, "lore.md"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	second, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	defer second.Close()

	if second.Index().Manifest().BuiltAt.Equal(builtAt) {
		t.Error("expected rebuild after touching a source file")
	}
}

func TestEmptySourceWithExistingCacheStaysFresh(t *testing.T) {
	sourceDir := t.TempDir()
	cacheDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(cacheDir, index.ManifestFile), []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	stale, err := index.NeedsRebuild(cacheDir, sourceDir)
	if err != nil {
		t.Fatalf("NeedsRebuild: %v", err)
	}
	if stale {
		t.Error("empty source directory must not invalidate the cache")
	}
}

func TestQueryReturnsAnswerAndLogsDuration(t *testing.T) {
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	provider := &MockLLMProvider{}
	sess, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, provider))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	answer, err := sess.Query(context.Background(), "Who owns the one ring?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "Sauron" {
		t.Errorf("answer = %q, want %q", answer, "Sauron")
	}
	if provider.completions != 1 {
		t.Errorf("completions = %d, want 1", provider.completions)
	}
	if n := len(sess.QueryDurations()); n != 1 {
		t.Errorf("duration log has %d entries, want 1", n)
	}
}

func TestQueryDurationLogGrowsInOrder(t *testing.T) {
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	sess, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	loadDuration := sess.LoadDuration()
	if loadDuration < 0 {
		t.Fatalf("load duration = %v, want >= 0", loadDuration)
	}

	questions := []string{
		"Who owns the one ring?",
		"Where do hobbits live?",
		"Who forged the ring?",
	}
	for _, q := range questions {
		if _, err := sess.Query(context.Background(), q); err != nil {
			t.Fatalf("Query(%q): %v", q, err)
		}
	}

	durations := sess.QueryDurations()
	if len(durations) != len(questions) {
		t.Fatalf("duration log has %d entries, want %d", len(durations), len(questions))
	}
	for i, d := range durations {
		if d < 0 {
			t.Errorf("duration %d = %v, want >= 0", i, d)
		}
		if scaled := d * 10; scaled != math.Trunc(scaled) {
			t.Errorf("duration %d = %v, not rounded to one decimal", i, d)
		}
	}

	if sess.LoadDuration() != loadDuration {
		t.Error("load duration changed after queries")
	}
}

func TestEmptyQuestionRejected(t *testing.T) {
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	sess, err := session.New(context.Background(), testOptions(sourceDir, cacheDir, &MockLLMProvider{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := sess.Query(context.Background(), q); !session.IsInvalidArgument(err) {
			t.Errorf("Query(%q) error = %v, want invalid argument", q, err)
		}
	}

	if n := len(sess.QueryDurations()); n != 0 {
		t.Errorf("duration log has %d entries after rejected queries, want 0", n)
	}
}

func TestNonPositiveTimeoutRejected(t *testing.T) {
	opts := testOptions(t.TempDir(), t.TempDir(), &MockLLMProvider{})
	opts.Timeout = 0

	if _, err := session.New(context.Background(), opts); !session.IsInvalidArgument(err) {
		t.Errorf("New error = %v, want invalid argument", err)
	}
}
