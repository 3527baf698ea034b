package cmd

import (
	"context"
	"fmt"

	"github.com/mfenderov/taryag/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server over the stored collection.

The server communicates via stdio and provides these tools:
  - get_mitzvah: Get a mitzvah by number
  - search_mitzvot: Substring search in English and Hebrew
  - filter_by_category: List mitzvot in a category
  - random_mitzvah: Get a random mitzvah
  - corpus_statistics: Summary of the corpus

Example:
  taryag serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	engine, err := loadEngine(context.Background())
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, engine)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting MCP server with %d mitzvot...\n", engine.Len())

	return server.ServeStdio()
}
