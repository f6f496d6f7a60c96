package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newAskCommand() *cobra.Command {
	var (
		sourceDir string
		cacheDir  string
		model     string
		topK      int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot question about your documents",
		Long: `Build or load the document index, answer a single question and exit.

The index is rebuilt automatically when any source document is newer
than the cache.

Examples:
  doclama ask "Who owns the one ring?"
  doclama ask --source ./docs --model llama3.1 "How do I configure TLS?"`,
		Args: cobra.MinimumNArgs(1),
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
			if model != "" {
				cfg.AI.Model = model
			}
			if topK > 0 {
				cfg.Retrieval.TopK = topK
			}
			if timeout > 0 {
				cfg.AI.Timeout = timeout
			}

			log := newLogger(cfg, "ask")

			sess, err := setupSession(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			question := strings.Join(args, " ")

			answer, err := sess.Query(cmd.Context(), question)
			if err != nil {
				return err
			}

			printAnswer(cmd.OutOrStdout(), cfg, answer, sess.LoadDuration(), sess.QueryDurations())
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source", "s", "", "document directory to index")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "index cache directory")
	cmd.Flags().StringVarP(&model, "model", "m", "", "completion model")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "chunks retrieved per query")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "backend request timeout")

	return cmd
}
