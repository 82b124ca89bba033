package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pdf-rag/internal/events"
	"pdf-rag/internal/handlers"
	"pdf-rag/internal/models"
	"pdf-rag/internal/service"
	"pdf-rag/internal/tui"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the local index",
		Long:  "Retrieve context from the configured storage directory and stream an answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().Bool("quiet", false, "Do not show a spinner while waiting for the model")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := Bootstrap(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	quiet, _ := cmd.Flags().GetBool("quiet")
	var progress io.Writer
	if !quiet {
		progress = cmd.ErrOrStderr()
	}

	return answer(cmd.Context(), app.Chat, strings.Join(args, " "), cmd.OutOrStdout(), progress)
}

// answer streams the reply to question onto out followed by its sources.
// A spinner runs on progress until the first event arrives; nil disables it.
func answer(ctx context.Context, svc service.ChatService, question string, out, progress io.Writer) error {
	stop := func() {}
	if progress != nil {
		stop = spin(ctx, "Thinking...", progress)
	}

	var sources []models.SourceRef
	err := svc.Ask(ctx, question, func(e events.Event) error {
		stop()
		switch e.Kind {
		case events.KindSources:
			sources = e.Sources
		case events.KindDelta:
			fmt.Fprint(out, e.Text)
		}
		return nil
	})
	stop()

	if err != nil {
		if errors.Is(err, models.ErrNoIndex) {
			return errors.New(handlers.StreamMessage(err))
		}
		return err
	}

	fmt.Fprintln(out)
	if len(sources) > 0 {
		fmt.Fprintf(out, "\n%s %s\n", color.CyanString("Sources:"), tui.FormatSources(sources))
	}
	return nil
}

// spin animates a spinner on w until the returned func is called.
func spin(ctx context.Context, description string, w io.Writer) func() {
	ctx, cancel := context.WithCancel(ctx)
	bar := getSpinner(description, w)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
