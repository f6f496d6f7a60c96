package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", path, err)
	}
}

func writeFileAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	touch(t, path, mtime)
}

func TestNeedsRebuild(t *testing.T) {
	base := time.Now().Add(-24 * time.Hour).Truncate(time.Second)

	tests := []struct {
		name    string
		setup   func(t *testing.T, cacheDir, sourceDir string)
		want    bool
		wantErr func(error) bool
	}{
		{
			name: "fresh cache",
			setup: func(t *testing.T, cacheDir, sourceDir string) {
				writeFileAt(t, filepath.Join(sourceDir, "doc.md"), base.Add(-time.Hour))
				touch(t, sourceDir, base.Add(-time.Hour))
				touch(t, cacheDir, base)
			},
			want: false,
		},
		{
			name: "newer source file",
			setup: func(t *testing.T, cacheDir, sourceDir string) {
				writeFileAt(t, filepath.Join(sourceDir, "doc.md"), base.Add(time.Hour))
				touch(t, sourceDir, base.Add(-time.Hour))
				touch(t, cacheDir, base)
			},
			want: true,
		},
		{
			name: "newer nested source file",
			setup: func(t *testing.T, cacheDir, sourceDir string) {
				sub := filepath.Join(sourceDir, "sub")
				if err := os.Mkdir(sub, 0o755); err != nil {
					t.Fatalf("mkdir failed: %v", err)
				}
				writeFileAt(t, filepath.Join(sourceDir, "old.md"), base.Add(-time.Hour))
				writeFileAt(t, filepath.Join(sub, "new.md"), base.Add(time.Hour))
				touch(t, sub, base.Add(-time.Hour))
				touch(t, sourceDir, base.Add(-time.Hour))
				touch(t, cacheDir, base)
			},
			want: true,
		},
		{
			name: "empty source directory",
			setup: func(t *testing.T, cacheDir, sourceDir string) {
				touch(t, sourceDir, base.Add(time.Hour))
				touch(t, cacheDir, base)
			},
			want: false,
		},
		{
			name: "source directory mtime ignored",
			setup: func(t *testing.T, cacheDir, sourceDir string) {
				writeFileAt(t, filepath.Join(sourceDir, "doc.md"), base.Add(-time.Hour))
				touch(t, sourceDir, base.Add(2*time.Hour))
				touch(t, cacheDir, base)
			},
			want: false,
		},
		{
			name: "cache subdirectory carries the timestamp",
			setup: func(t *testing.T, cacheDir, sourceDir string) {
				sub := filepath.Join(cacheDir, "artifacts")
				if err := os.Mkdir(sub, 0o755); err != nil {
					t.Fatalf("mkdir failed: %v", err)
				}
				writeFileAt(t, filepath.Join(sourceDir, "doc.md"), base.Add(time.Hour))
				touch(t, sourceDir, base.Add(-time.Hour))
				touch(t, sub, base.Add(2*time.Hour))
				touch(t, cacheDir, base)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cacheDir := t.TempDir()
			sourceDir := t.TempDir()
			tt.setup(t, cacheDir, sourceDir)

			got, err := NeedsRebuild(cacheDir, sourceDir)
			if err != nil {
				t.Fatalf("NeedsRebuild failed: %v", err)
			}

			if got != tt.want {
				t.Errorf("NeedsRebuild() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeedsRebuildMissingSource(t *testing.T) {
	cacheDir := t.TempDir()

	_, err := NeedsRebuild(cacheDir, filepath.Join(cacheDir, "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing source directory")
	}

	if !IsNotFound(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestNeedsRebuildMissingCache(t *testing.T) {
	sourceDir := t.TempDir()

	_, err := NeedsRebuild(filepath.Join(sourceDir, "no-cache"), sourceDir)
	if err == nil {
		t.Fatal("expected error for missing cache directory")
	}

	if !IsNotFound(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}
