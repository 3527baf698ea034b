package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfenderov/taryag/internal/events"
	"github.com/mfenderov/taryag/internal/pipeline"
	"github.com/spf13/cobra"
)

var fetchQuiet bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the whole corpus",
	Long: `Download every mitzvah from the texts API, one request at a time with a
delay between requests, and write the per-record files, the collection,
the index and the list of failed items.

Examples:
  # Full download with the default one second delay
  taryag fetch

  # Faster, into a different directory
  TARYAG_SOURCE_DELAY=250ms TARYAG_STORAGE_DIR=/tmp/taryag taryag fetch`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVarP(&fetchQuiet, "quiet", "q", false, "Do not print per-item progress")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	slog.Debug("fetch command starting", "count", GetConfig().Source.Count, "delay", GetConfig().Source.Delay)

	result, err := runWithProgress(ctx, cmd, p, p.Run)
	if err != nil {
		return fmt.Errorf("acquisition failed: %w", err)
	}

	printSummary(cmd, "Fetched", result)
	if len(result.Failures) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'taryag retry' to fetch the failed items again")
	}
	return nil
}

// newPipeline wires the fetcher and the store. A fetcher that cannot be
// built is the one fatal condition of a run.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	st, err := newStore(ctx)
	if err != nil {
		return nil, err
	}

	f, err := newFetcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrNoFetcher, err)
	}

	src := GetConfig().Source
	return pipeline.New(pipeline.Config{Count: src.Count, Delay: src.Delay}, f, st), nil
}

// runWithProgress runs fn while a consumer goroutine prints one line per
// handled item.
func runWithProgress(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, fn func(context.Context) (*pipeline.Result, error)) (*pipeline.Result, error) {
	progress := make(chan events.ItemEvent)
	done := make(chan struct{})
	p.WithProgress(progress)

	go func() {
		defer close(done)
		for event := range progress {
			if fetchQuiet {
				continue
			}
			if event.Failed() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %3d  FAILED  %s\n", event.ID, event.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %3d  %s\n", event.ID, event.Title)
		}
	}()

	result, err := fn(ctx)
	close(progress)
	<-done
	return result, err
}

func printSummary(cmd *cobra.Command, verb string, result *pipeline.Result) {
	summary := result.Summary()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s %d mitzvot, %d failed in %v (run %s)\n",
		verb, summary.Acquired, summary.Failed, summary.Duration.Round(time.Millisecond), summary.RunID)
	skipped := 0
	for _, f := range result.Failures {
		if f.Error == pipeline.NotAttempted {
			skipped++
			continue
		}
		fmt.Fprintf(out, "  - %d: %s\n", f.ID, f.Error)
	}
	if skipped > 0 {
		fmt.Fprintf(out, "  - %d items not attempted (cancelled)\n", skipped)
	}
}
