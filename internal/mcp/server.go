package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/taryag/internal/query"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 10

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Server exposes a query engine as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	engine    *query.Engine
}

// NewServer creates a new MCP server with the lookup and search tools.
func NewServer(config Config, engine *query.Engine) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("query engine is required")
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    engine,
	}

	getTool := mcp.NewTool("get_mitzvah",
		mcp.WithDescription("Get one mitzvah by its number (1-613), with English and Hebrew text."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Mitzvah number"),
		),
	)
	mcpServer.AddTool(getTool, s.getHandler)

	searchTool := mcp.NewTool("search_mitzvot",
		mcp.WithDescription("Search mitzvot by substring. English matches ignore case; Hebrew matches exactly. Returns each match with a snippet around the term."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for"),
		),
		mcp.WithString("language",
			mcp.Description("Which text to search (default: both)"),
			mcp.Enum(string(query.English), string(query.Hebrew), string(query.Both)),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	categoryTool := mcp.NewTool("filter_by_category",
		mcp.WithDescription("List mitzvot whose categories contain the given text, ignoring case."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category name or part of it"),
		),
	)
	mcpServer.AddTool(categoryTool, s.categoryHandler)

	randomTool := mcp.NewTool("random_mitzvah",
		mcp.WithDescription("Get a randomly chosen mitzvah."),
	)
	mcpServer.AddTool(randomTool, s.randomHandler)

	statsTool := mcp.NewTool("corpus_statistics",
		mcp.WithDescription("Summary of the loaded corpus: totals per language, categories and average English text length."),
	)
	mcpServer.AddTool(statsTool, s.statisticsHandler)

	return s, nil
}

func (s *Server) getHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	record, ok := s.engine.GetByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("mitzvah not found: %d", id)), nil
	}
	return jsonResult(record)
}

func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	lang, ok := query.ParseLanguage(req.GetString("language", string(query.Both)))
	if !ok {
		return mcp.NewToolResultError("language must be english, hebrew or both"), nil
	}

	matches := s.engine.Search(term, lang)
	if limit := req.GetInt("limit", DefaultSearchLimit); limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return jsonResult(matches)
}

func (s *Server) categoryHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category parameter is required"), nil
	}
	return jsonResult(s.engine.FilterByCategory(category))
}

func (s *Server) randomHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	record, ok := s.engine.Random()
	if !ok {
		return mcp.NewToolResultError("no mitzvot loaded"), nil
	}
	return jsonResult(record)
}

func (s *Server) statisticsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Statistics())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
