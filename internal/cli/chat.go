package cli

import (
	"github.com/spf13/cobra"

	"github.com/doclama/doclama/internal/ui"
)

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop over your documents",
		Long: `Open an interactive terminal session against the document index.
The index is built or loaded once at startup; every question is then
answered against it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := newLogger(cfg, "chat")

			sess, err := setupSession(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return ui.RunChat(sess.Query)
		},
	}
}
