package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doclama/doclama/internal/config"
	"github.com/doclama/doclama/internal/index"
)

func newIndexCommand() *cobra.Command {
	var (
		sourceDir string
		cacheDir  string
		check     bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the document index",
		Long: `Force a rebuild of the document index, or report whether the cache
is stale with --check.

Examples:
  doclama index
  doclama index --check
  doclama index --source ./docs --cache ~/.cache/doclama`,
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

			source := config.ExpandPath(cfg.Storage.SourceDir)
			cache := config.ExpandPath(cfg.Storage.CacheDir)

			if check {
				return runIndexCheck(cmd, source, cache)
			}

			log := newLogger(cfg, "index")

			builder, err := setupBuilder(cfg, log)
			if err != nil {
				return err
			}

			start := time.Now()
			idx, err := builder.Build(cmd.Context(), source, cache)
			if err != nil {
				return err
			}

			printIndexStats(cmd.OutOrStdout(), cfg, idx.Manifest(), time.Since(start))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source", "s", "", "document directory to index")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "index cache directory")
	cmd.Flags().BoolVar(&check, "check", false, "report staleness without rebuilding")

	return cmd
}

func runIndexCheck(cmd *cobra.Command, source, cache string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(cache); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "cache missing: rebuild required")
		return nil
	}

	stale, err := index.NeedsRebuild(cache, source)
	if err != nil {
		return err
	}

	if stale {
		fmt.Fprintln(out, "cache stale: rebuild required")
	} else {
		fmt.Fprintln(out, "cache fresh")
	}
	return nil
}
