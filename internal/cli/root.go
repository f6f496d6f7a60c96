package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/doclama/doclama/internal/config"
	"github.com/doclama/doclama/internal/logger"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doclama",
		Short: "Question answering over your documents",
		Long: `Doclama indexes a directory of markdown and text documents into a
local vector store and answers questions about them through an LLM.

The index is cached on disk and rebuilt automatically when source
documents change. Embeddings come from Ollama or OpenAI, with a local
TF-IDF fallback for fully offline use.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newIndexCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			fmt.Printf("doclama %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Global helpers

func isVerbose() bool {
	return verbose
}

// loadConfig loads the effective configuration and applies the global
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.ColorMode = "never"
	}

	return cfg, nil
}

func newLogger(cfg *config.Config, component string) *logger.Logger {
	return logger.NewWithCallback(component, func() bool {
		return cfg.Output.Verbose
	})
}
