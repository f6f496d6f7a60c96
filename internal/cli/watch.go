package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doclama/doclama/internal/config"
	"github.com/doclama/doclama/internal/index"
	"github.com/doclama/doclama/internal/logger"
)

func newWatchCommand() *cobra.Command {
	var (
		sourceDir string
		cacheDir  string
		debounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch documents and rebuild the index on change",
		Long: `Monitor the source directory for changes and rebuild the index when
documents are added, modified or removed. Press Ctrl+C to stop.

Examples:
  doclama watch
  doclama watch --source ./docs --debounce 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if sourceDir != "" {
				cfg.Storage.SourceDir = sourceDir
			}
			if cacheDir != "" {
				cfg.Storage.CacheDir = cacheDir
			}

			log := newLogger(cfg, "watch")

			builder, err := setupBuilder(cfg, log)
			if err != nil {
				return err
			}

			source := config.ExpandPath(cfg.Storage.SourceDir)
			cache := config.ExpandPath(cfg.Storage.CacheDir)

			return runWatchLoop(cmd.Context(), builder, log, source, cache, debounce)
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source", "s", "", "document directory to watch")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "index cache directory")
	cmd.Flags().DurationVar(&debounce, "debounce", time.Second, "delay before rebuilding after a change")

	return cmd
}

func runWatchLoop(ctx context.Context, builder *index.Builder, log *logger.Logger, source, cache string, debounce time.Duration) error {
	// Build once up front so the first query after startup is served
	// from a fresh index.
	if _, err := builder.Build(ctx, source, cache); err != nil {
		return err
	}
	log.Info("watching %s", source)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer cleanupWatcher(watcher, log)

	if err := addDirsRecursive(watcher, source); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The timer coalesces bursts of events into one rebuild.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirsRecursive(watcher, event.Name); err != nil && isVerbose() {
						fmt.Fprintf(os.Stderr, "Warning: failed to watch %s: %v\n", event.Name, err)
					}
				}
			}

			log.Debug("change detected: %s (%s)", event.Name, event.Op)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error: %v", err)

		case <-timer.C:
			if _, err := builder.Build(ctx, source, cache); err != nil {
				log.Error("rebuild failed: %v", err)
				continue
			}
			log.Info("index rebuilt")
		}
	}
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func cleanupWatcher(watcher *fsnotify.Watcher, log *logger.Logger) {
	if err := watcher.Close(); err != nil {
		log.Warn("failed to close watcher: %v", err)
	}
}
