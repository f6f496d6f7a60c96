package session

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/doclama/doclama/internal/ai"
)

// fakeProvider answers from the retrieved context without a backend.
type fakeProvider struct {
	completions int
	lastPrompt  string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.completions++
	f.lastPrompt = req.Prompt

	answer := "The documentation does not cover it."
	if strings.Contains(req.Prompt, "Sauron") {
		answer = "Sauron"
	}

	return &ai.CompletionResponse{Content: answer, Model: "fake"}, nil
}

func (f *fakeProvider) CompleteStream(ctx context.Context, req *ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	ch := make(chan ai.StreamChunk, 1)
	ch <- ai.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) CountTokens(text string) (int, error) { return len(text) / 4, nil }
func (f *fakeProvider) MaxTokens() int                       { return 4096 }
func (f *fakeProvider) SupportsStreaming() bool              { return false }
func (f *fakeProvider) ValidateConfig() error                { return nil }
func (f *fakeProvider) Close() error                         { return nil }

func writeCorpus(t *testing.T, dir string) {
	t.Helper()
	content := `# The One Ring

Sauron forged the One Ring and owns it.

# The Shire

Hobbits live in the Shire.
`
	if err := os.WriteFile(filepath.Join(dir, "lore.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}
}

func testOptions(t *testing.T, provider ai.LLMProvider) Options {
	t.Helper()
	sourceDir := t.TempDir()
	writeCorpus(t, sourceDir)

	return Options{
		CacheDir:  filepath.Join(t.TempDir(), "cache"),
		SourceDir: sourceDir,
		Model:     "tfidf",
		Timeout:   30 * time.Second,
		Provider:  provider,
	}
}

func TestNewRejectsZeroTimeout(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})
	opts.Timeout = 0

	_, err := New(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for zero timeout")
	}

	if !IsInvalidArgument(err) {
		t.Errorf("error = %v, want InvalidArgumentError", err)
	}
}

func TestNewBuildsMissingCache(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})

	sess, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	if _, err := os.Stat(filepath.Join(opts.CacheDir, "vectors.json")); err != nil {
		t.Errorf("cache artifacts not written: %v", err)
	}

	if sess.LoadDuration() < 0 {
		t.Errorf("load duration = %v, want >= 0", sess.LoadDuration())
	}

	if sess.Index().Size() == 0 {
		t.Error("index is empty after build")
	}
}

func TestNewLoadsFreshCache(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})

	first, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("first New failed: %v", err)
	}
	builtAt := first.Index().Manifest().BuiltAt
	_ = first.Close()

	second, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("second New failed: %v", err)
	}
	defer func() { _ = second.Close() }()

	if !second.Index().Manifest().BuiltAt.Equal(builtAt) {
		t.Error("fresh cache was rebuilt instead of loaded")
	}
}

func TestNewRebuildsStaleCache(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})

	first, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("first New failed: %v", err)
	}
	builtAt := first.Index().Manifest().BuiltAt
	_ = first.Close()

	// Make a source file newer than everything under the cache.
	future := time.Now().Add(time.Hour)
	lore := filepath.Join(opts.SourceDir, "lore.md")
	if err := os.Chtimes(lore, future, future); err != nil {
		t.Fatalf("failed to bump source mtime: %v", err)
	}

	second, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("second New failed: %v", err)
	}
	defer func() { _ = second.Close() }()

	if second.Index().Manifest().BuiltAt.Equal(builtAt) {
		t.Error("stale cache was not rebuilt")
	}
}

func TestQueryAnswersFromContext(t *testing.T) {
	provider := &fakeProvider{}
	opts := testOptions(t, provider)

	sess, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	answer, err := sess.Query(context.Background(), "Who owns the one ring?")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if answer != "Sauron" {
		t.Errorf("answer = %q, want Sauron", answer)
	}

	if provider.completions != 1 {
		t.Errorf("completions = %d, want 1", provider.completions)
	}

	if !strings.Contains(provider.lastPrompt, "Who owns the one ring?") {
		t.Error("prompt is missing the question")
	}
}

func TestQueryRejectsBlankQuestion(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})

	sess, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	for _, question := range []string{"", "   ", "\n\t"} {
		if _, err := sess.Query(context.Background(), question); !IsInvalidArgument(err) {
			t.Errorf("Query(%q) error = %v, want InvalidArgumentError", question, err)
		}
	}

	if n := len(sess.QueryDurations()); n != 0 {
		t.Errorf("rejected queries recorded %d durations, want 0", n)
	}
}

func TestQueryDurationLog(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})

	sess, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	questions := []string{"Who owns the one ring?", "Where do hobbits live?", "What is pipe-weed?"}
	for _, q := range questions {
		if _, err := sess.Query(context.Background(), q); err != nil {
			t.Fatalf("Query(%q) failed: %v", q, err)
		}
	}

	durations := sess.QueryDurations()
	if len(durations) != len(questions) {
		t.Fatalf("recorded %d durations, want %d", len(durations), len(questions))
	}

	for i, d := range durations {
		if d < 0 {
			t.Errorf("duration %d = %v, want >= 0", i, d)
		}
		// One decimal place: scaling by ten yields an integer.
		if scaled := d * 10; scaled != math.Trunc(scaled) {
			t.Errorf("duration %d = %v, want one decimal place", i, d)
		}
	}
}

func TestQueryDurationsSnapshot(t *testing.T) {
	opts := testOptions(t, &fakeProvider{})

	sess, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	if _, err := sess.Query(context.Background(), "Who owns the one ring?"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	snapshot := sess.QueryDurations()
	snapshot[0] = -99

	if fresh := sess.QueryDurations(); fresh[0] == -99 {
		t.Error("QueryDurations returned internal storage instead of a copy")
	}
}

func TestRoundTenth(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.0, 0.0},
		{0.04, 0.0},
		{0.05, 0.1},
		{1.26, 1.3},
		{2.34, 2.3},
	}

	for _, tt := range tests {
		if got := roundTenth(tt.in); got != tt.want {
			t.Errorf("roundTenth(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
