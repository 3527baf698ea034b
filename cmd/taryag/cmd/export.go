package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mfenderov/taryag/internal/export"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export [number]",
	Short: "Write a mitzvah as json, txt or md",
	Long: `Render a mitzvah and write it next to the other artifacts as
exports/mitzvah_NNN.<format>.

Examples:
  taryag export 24 --format md
  taryag export 613 --format txt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.JSON), "Export format: json, txt or md")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

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

	st, err := newStore(ctx)
	if err != nil {
		return err
	}
	name, err := export.Write(ctx, st.Backend(), record, format)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s/%s\n", st.Location(), name)
	return nil
}
