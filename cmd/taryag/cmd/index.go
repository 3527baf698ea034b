package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/taryag/internal/pipeline"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the collection and index from per-record files",
	Long: `Read every per-record file, write them out again as one collection sorted
by number, and regenerate the index. No network access is needed.

Example:
  taryag index`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx)
	if err != nil {
		return err
	}

	// Consolidation never fetches, so no fetcher is wired.
	p := pipeline.New(pipeline.Config{Count: GetConfig().Source.Count}, nil, st)
	records, err := p.Consolidate(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d mitzvot in %s\n", len(records), st.Location())
	return nil
}
