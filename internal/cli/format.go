package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yildizm/go-termfmt"

	"github.com/doclama/doclama/internal/config"
	"github.com/doclama/doclama/internal/index"
)

func termOptions(cfg *config.Config) *termfmt.TerminalOptions {
	opts := termfmt.DefaultOptions()
	opts.Color = cfg.Output.ColorMode != "never"
	opts.Emoji = true
	return opts
}

// printAnswer writes the answer followed by an optional timing tree.
func printAnswer(w io.Writer, cfg *config.Config, answer string, loadSecs float64, querySecs []float64) {
	opts := termOptions(cfg)

	symbol := termfmt.GetEmoji("insight", opts)
	fmt.Fprintf(w, "%s Answer\n\n%s\n", symbol, strings.TrimSpace(answer))

	if !cfg.Output.ShowTimings {
		return
	}

	items := []termfmt.TreeItem{
		{Label: "Load", Value: fmt.Sprintf("%.2fs", loadSecs)},
	}

	if len(querySecs) > 0 {
		last := querySecs[len(querySecs)-1]
		items = append(items, termfmt.TreeItem{Label: "Query", Value: fmt.Sprintf("%.1fs", last), Last: true})
	} else {
		items[0].Last = true
	}

	fmt.Fprintf(w, "\n%s Timings\n", termfmt.GetEmoji("statistics", opts))
	fmt.Fprint(w, termfmt.TreeViewWithOptions(items, opts))
}

// printIndexStats writes a build summary tree.
func printIndexStats(w io.Writer, cfg *config.Config, manifest index.Manifest, elapsed time.Duration) {
	opts := termOptions(cfg)

	model := manifest.Model
	if manifest.Vectorizer != nil {
		model = "tfidf (local)"
	}

	items := []termfmt.TreeItem{
		{Label: "Documents", Value: fmt.Sprintf("%d", manifest.DocumentCount)},
		{Label: "Chunks", Value: fmt.Sprintf("%d", manifest.ChunkCount)},
		{Label: "Dimension", Value: fmt.Sprintf("%d", manifest.Dimension)},
		{Label: "Model", Value: model},
		{Label: "Duration", Value: elapsed.Round(time.Millisecond).String(), Last: true},
	}

	fmt.Fprintf(w, "%s Index built\n", termfmt.GetEmoji("statistics", opts))
	fmt.Fprint(w, termfmt.TreeViewWithOptions(items, opts))
}
