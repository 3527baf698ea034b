package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format: text or json")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := loadEngine(ctx)
	if err != nil {
		return err
	}

	stats := engine.Statistics()

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(out, stats)
	}

	fmt.Fprintf(out, "Total:               %d\n", stats.Total)
	fmt.Fprintf(out, "With English:        %d\n", stats.WithEnglish)
	fmt.Fprintf(out, "With Hebrew:         %d\n", stats.WithHebrew)
	fmt.Fprintf(out, "Average text length: %d\n", stats.AverageTextLength)
	fmt.Fprintf(out, "Categories (%d):\n", len(stats.Categories))
	if len(stats.Categories) > 0 {
		fmt.Fprintf(out, "  %s\n", strings.Join(stats.Categories, "\n  "))
	}
	return nil
}
