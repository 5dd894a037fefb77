// Command careerforge-chat is a terminal client for the CareerForge chat API.
package main

import (
	"fmt"
	"os"

	"github.com/careerforge/careerforge"
	"github.com/careerforge/careerforge/client"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	serverURL string
	userID    string
	statePath string
	verbose   bool

	logger *zap.Logger
	store  *client.Store
)

var rootCmd = &cobra.Command{
	Use:   "careerforge-chat",
	Short: "Chat with the CareerForge career assistant",
	Long: `careerforge-chat talks to a CareerForge server and keeps a local copy of
your sessions so they are available between runs.

Run without arguments to start an interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = careerforge.NewLogger(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		if statePath == "" {
			if statePath, err = client.DefaultStatePath(); err != nil {
				return err
			}
		}
		store = client.NewStore(client.NewHTTPClient(serverURL, userID), client.NewFileStorage(statePath), logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CAREERFORGE_SERVER", "http://localhost:8080/api"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("CAREERFORGE_USER"), "user id sent as X-User-ID")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "local session file (default in the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sendCmd.Flags().StringVar(&sendSession, "session", "", "session to continue")
	sendCmd.Flags().BoolVar(&sendNew, "new", false, "start a new session")
	sendCmd.Flags().StringVar(&sendDocument, "document", "", "file whose text is sent as document content")

	rootCmd.AddCommand(sendCmd, chatCmd, sessionsCmd, searchCmd, endCmd, deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// render formats a markdown reply for the terminal, falling back to the raw
// text when the renderer is unavailable.
func render(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
