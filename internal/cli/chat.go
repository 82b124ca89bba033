package cli

import (
	"fmt"

	"pdf-rag/internal/client"
	"pdf-rag/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// ChatCmd returns the chat command
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running server in the terminal",
		Long:  "Open an interactive terminal UI that streams answers from a running pdf-rag server",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}

	cmd.Flags().StringP(flagServer, "s", "", "Server base URL (default http://localhost:<port>)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	url, err := serverURL(cmd)
	if err != nil {
		return err
	}

	model := tui.New(client.New(url), url)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
