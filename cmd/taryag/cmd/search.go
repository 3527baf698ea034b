package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/taryag/internal/query"
	"github.com/spf13/cobra"
)

var (
	searchLimit    int
	searchLanguage string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search English and Hebrew text",
	Long: `Search the mitzvot for a substring. English text is matched ignoring case,
Hebrew text exactly. Titles are always searched.

Examples:
  # Basic search
  taryag search "shabbat"

  # Hebrew only
  taryag search "שבת" --lang hebrew

  # JSON output for scripting
  taryag search "charity" --limit 5 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var categoryCmd = &cobra.Command{
	Use:   "category [name]",
	Short: "List mitzvot in a category",
	Long: `List the mitzvot whose categories contain the given text, ignoring case.

Example:
  taryag category halakhah`,
	Args: cobra.ExactArgs(1),
	RunE: runCategory,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(categoryCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results (0 for all)")
	searchCmd.Flags().StringVar(&searchLanguage, "lang", string(query.Both), "Text to search: english, hebrew or both")
	searchCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format: text or json")
	categoryCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format: text or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	lang, ok := query.ParseLanguage(searchLanguage)
	if !ok {
		return fmt.Errorf("unknown language %q (use english, hebrew or both)", searchLanguage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := loadEngine(ctx)
	if err != nil {
		return err
	}

	matches := engine.Search(args[0], lang)
	if searchLimit > 0 && len(matches) > searchLimit {
		matches = matches[:searchLimit]
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(out, matches)
	}

	if len(matches) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d results:\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(out, "─── Result %d ───\n", i+1)
		fmt.Fprintf(out, "Mitzvah: %d\n", m.Record.ID)
		fmt.Fprintf(out, "Title:   %s\n", m.Record.DisplayTitle())
		fmt.Fprintf(out, "Match:\n%s\n\n", m.MatchText)
	}
	return nil
}

func runCategory(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := loadEngine(ctx)
	if err != nil {
		return err
	}

	records := engine.FilterByCategory(args[0])

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No mitzvot in that category.")
		return nil
	}
	for _, r := range records {
		printRecordLine(out, r)
	}
	return nil
}
