package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doclama/doclama/internal/config"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage doclama configuration",
		Long: `Manage doclama configuration files and settings.

The config command provides subcommands for initializing, viewing
and locating configuration files.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new doclama configuration file with default values.

By default, creates a full configuration file with all options and comments.
Use --minimal for a compact configuration with only essential settings.`,
		Example: `  # Create full config in current directory
  doclama config init

  # Create minimal config
  doclama config init --minimal

  # Create config at specific path
  doclama config init --output ~/.config/doclama/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".doclama.yaml"
			}

			if !force {
				if _, err := os.Stat(outputPath); err == nil {
					return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
				}
			}

			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			content := config.SampleConfig()
			if minimal {
				content = config.MinimalSampleConfig()
			}

			if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", outputPath)
			return nil
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for the config file")
	initCmd.Flags().BoolVar(&minimal, "minimal", false, "create a minimal configuration")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return initCmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Print the merged configuration after files, environment and flags are applied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Configuration search paths (highest priority first):")
			for _, path := range config.GetConfigPaths() {
				marker := " "
				if _, err := os.Stat(path); err == nil {
					marker = "*"
				}
				fmt.Fprintf(out, " %s %s\n", marker, path)
			}

			if found, ok := config.FindConfigFile(); ok {
				fmt.Fprintf(out, "\nActive config: %s\n", found)
			} else {
				fmt.Fprintln(out, "\nNo config file found, using defaults")
			}
			return nil
		},
	}
}
