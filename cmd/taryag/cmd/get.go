package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mfenderov/taryag/internal/index"
	"github.com/mfenderov/taryag/pkg/models"
	"github.com/spf13/cobra"
)

var outputFormat string

var getCmd = &cobra.Command{
	Use:   "get [number]",
	Short: "Show one mitzvah",
	Long: `Show a mitzvah by its number, 1 to 613.

Examples:
  taryag get 24
  taryag get 24 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Show a random mitzvah",
	Args:  cobra.NoArgs,
	RunE:  runRandom,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(randomCmd)

	for _, c := range []*cobra.Command{getCmd, randomCmd} {
		c.Flags().StringVar(&outputFormat, "format", "text", "Output format: text or json")
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid mitzvah number %q", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := loadEngine(ctx)
	if err != nil {
		return err
	}

	record, ok := engine.GetByID(id)
	if !ok {
		return fmt.Errorf("mitzvah %d not found", id)
	}
	return printRecord(cmd.OutOrStdout(), record)
}

func runRandom(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := loadEngine(ctx)
	if err != nil {
		return err
	}

	record, ok := engine.Random()
	if !ok {
		return fmt.Errorf("no mitzvot loaded")
	}
	return printRecord(cmd.OutOrStdout(), record)
}

func printRecord(out io.Writer, r models.Record) error {
	if outputFormat == "json" {
		return printJSON(out, r)
	}

	fmt.Fprintf(out, "Mitzvah %d: %s\n", r.ID, r.DisplayTitle())
	if r.HebrewTitle != "" {
		fmt.Fprintf(out, "%s\n", r.HebrewTitle)
	}
	if len(r.Categories) > 0 {
		fmt.Fprintf(out, "Categories: %s\n", strings.Join(r.Categories, " > "))
	}
	if r.HasEnglish() {
		fmt.Fprintf(out, "\n%s\n", r.English())
	}
	if r.HasHebrew() {
		fmt.Fprintf(out, "\n%s\n", r.Hebrew())
	}
	return nil
}

func printRecordLine(out io.Writer, r models.Record) {
	fmt.Fprintf(out, "%3d  %s\n", r.ID, r.DisplayTitle())
	if preview := index.ExtractPreview(r); preview != "" {
		fmt.Fprintf(out, "     %s\n", preview)
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
