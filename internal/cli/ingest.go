package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/service"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.pdf>...",
		Short: "Index PDF files into the local store",
		Long:  "Extract, chunk and embed PDF files directly into the configured storage directory",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().Bool("json", false, "Print the ingest summary as JSON")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := Bootstrap(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	result, err := ingestFiles(cmd, app.Ingest, args, out, !asJSON)
	if err != nil {
		return err
	}

	if asJSON {
		helper.PrettyPrint(out, result)
		return nil
	}

	for _, f := range result.Files {
		fmt.Fprintf(out, "%s %s: %d pages, %d chunks (%s)\n",
			color.GreenString("✓"), f.Filename, f.Pages, f.Chunks, f.Mode)
	}
	fmt.Fprintln(out, color.GreenString("✓ Indexed %d chunks from %d files", result.Chunks, len(result.Files)))
	return nil
}

// ingestFiles feeds the files to svc one at a time so progress can be shown.
// The first failure stops the run; files before it stay indexed.
func ingestFiles(cmd *cobra.Command, svc service.IngestService, paths []string, out io.Writer, progress bool) (service.IngestResult, error) {
	var (
		total service.IngestResult
		bar   *progressbar.ProgressBar
	)
	if progress {
		bar = getProgressBar(len(paths), "Ingesting PDFs", out)
	}

	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return total, fmt.Errorf("failed to read %s: %w", path, err)
		}

		res, err := svc.Ingest(cmd.Context(), []service.Upload{{Filename: filepath.Base(path), Data: data}})
		if err != nil {
			if bar != nil {
				_ = bar.Exit()
			}
			return total, err
		}

		if i == 0 {
			total.Mode = res.Mode
		}
		total.Chunks += res.Chunks
		total.Files = append(total.Files, res.Files...)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(out)
	}
	return total, nil
}

func getProgressBar(total int, description string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)
}
