package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var retryNoMerge bool

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Download the items that failed last time",
	Long: `Fetch again every item listed in the failure file. Items that still fail
stay listed; the file is removed once everything has been fetched.

Recovered items are written as per-record files and then merged into the
collection and the index, unless --no-merge is given.

Examples:
  taryag retry
  taryag retry --no-merge`,
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)

	retryCmd.Flags().BoolVar(&retryNoMerge, "no-merge", false, "Only write per-record files, leave the collection as is")
	retryCmd.Flags().BoolVarP(&fetchQuiet, "quiet", "q", false, "Do not print per-item progress")
}

func runRetry(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	result, err := runWithProgress(ctx, cmd, p, p.RetryFailed)
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	printSummary(cmd, "Recovered", result)

	if len(result.Records) == 0 || retryNoMerge {
		return nil
	}

	merged, err := p.Consolidate(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("failed to merge recovered items: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Collection now holds %d mitzvot\n", len(merged))
	return nil
}
