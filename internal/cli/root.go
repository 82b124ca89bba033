// Package cli holds the pdf-rag cobra commands.
package cli

import (
	"fmt"
	"os"

	"pdf-rag/internal/config"

	"github.com/spf13/cobra"
)

const (
	flagConfig     = "config"
	flagPort       = "port"
	flagStorageDir = "storage-dir"
	flagServer     = "server"
)

// NewRootCmd builds the pdf-rag command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pdf-rag",
		Short:         "Ask questions about uploaded PDF documents",
		Long:          "pdf-rag indexes PDF documents and answers questions about them with a streaming language model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP(flagConfig, "c", config.DefaultConfigPath, "Path to the YAML config file")
	flags.StringP(flagPort, "p", "", "Port to listen on (overrides config)")
	flags.String(flagStorageDir, "", "Directory holding the index and corpus (overrides config)")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(IngestCmd())
	rootCmd.AddCommand(AskCmd())
	rootCmd.AddCommand(ChatCmd())
	rootCmd.AddCommand(FilesCmd())
	rootCmd.AddCommand(UploadCmd())

	return rootCmd
}

// Execute runs the root command, defaulting to serve when no arguments are given.
func Execute() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
