package cli

import (
	"fmt"
	"net"
	"strings"
	"text/tabwriter"

	"pdf-rag/internal/client"
	"pdf-rag/internal/config"
	"pdf-rag/internal/helper"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// FilesCmd returns the files command
func FilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List documents indexed by a running server",
		Args:  cobra.NoArgs,
		RunE:  runFiles,
	}

	cmd.Flags().StringP(flagServer, "s", "", "Server base URL (default http://localhost:<port>)")
	cmd.Flags().Bool("json", false, "Print the listing as JSON")

	return cmd
}

func runFiles(cmd *cobra.Command, args []string) error {
	url, err := serverURL(cmd)
	if err != nil {
		return err
	}

	files, err := client.New(url).Files(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		helper.PrettyPrint(out, files)
		return nil
	}

	if len(files) == 0 {
		fmt.Fprintln(out, color.YellowString("No documents indexed yet"))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tPAGES")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\n", f.Filename, f.Pages)
	}
	return tw.Flush()
}

// serverURL resolves the server to talk to: --server wins, otherwise the
// configured port on localhost.
func serverURL(cmd *cobra.Command) (string, error) {
	if s, _ := cmd.Flags().GetString(flagServer); s != "" {
		return strings.TrimRight(s, "/"), nil
	}

	port, _ := cmd.Flags().GetString(flagPort)
	if port == "" {
		path, _ := cmd.Flags().GetString(flagConfig)
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		port = cfg.Server.Port
	}
	return "http://" + net.JoinHostPort("localhost", port), nil
}

// UploadCmd returns the upload command
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload PDF files to a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUpload,
	}

	cmd.Flags().StringP(flagServer, "s", "", "Server base URL (default http://localhost:<port>)")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	url, err := serverURL(cmd)
	if err != nil {
		return err
	}

	c := client.New(url)
	health, err := c.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("server not reachable at %s: %w", url, err)
	}
	if !health.OK {
		return fmt.Errorf("server at %s reports unhealthy", url)
	}

	bar := getSpinner("Uploading...", cmd.ErrOrStderr())
	_ = bar.Add(1)
	res, err := c.Upload(cmd.Context(), args)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, f := range res.Files {
		fmt.Fprintf(out, "%s %s: %d pages, %d chunks (%s)\n",
			color.GreenString("✓"), f.Filename, f.Pages, f.Chunks, f.Mode)
	}
	fmt.Fprintln(out, color.GreenString("✓ Indexed %d chunks (%s)", res.Chunks, res.Mode))
	return nil
}
