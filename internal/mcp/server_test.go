package mcp

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mfenderov/taryag/internal/query"
	"github.com/mfenderov/taryag/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	engine := query.New(models.Collection{
		{
			ID:          1,
			Title:       "Mitzvah 1",
			Categories:  []string{"Halakhah"},
			EnglishText: models.Paragraphs{"To be fruitful and multiply."},
			HebrewText:  models.Paragraphs{"להוליד בנים"},
		},
		{
			ID:          24,
			Title:       "Shabbat",
			Categories:  []string{"Halakhah", "Shabbat"},
			EnglishText: models.Paragraphs{"Remember the Shabbat day."},
			HebrewText:  models.Paragraphs{"זכור את יום השבת"},
		},
	}, 613)

	s, err := NewServer(Config{Name: "taryag", Version: "1.0.0"}, engine)
	require.NoError(t, err)
	return s
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestServer_Creation(t *testing.T) {
	s := testServer(t)
	assert.NotNil(t, s.mcpServer)

	_, err := NewServer(Config{Name: "taryag"}, nil)
	assert.Error(t, err)
}

func TestServer_GetMitzvah(t *testing.T) {
	s := testServer(t)

	result, err := s.getHandler(t.Context(), call(map[string]any{"id": float64(24)}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var record models.Record
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &record))
	assert.Equal(t, 24, record.ID)

	result, err = s.getHandler(t.Context(), call(map[string]any{"id": float64(614)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.getHandler(t.Context(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_Search(t *testing.T) {
	s := testServer(t)

	result, err := s.searchHandler(t.Context(), call(map[string]any{"query": "SHABBAT"}))
	require.NoError(t, err)

	var matches []query.Match
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, 24, matches[0].Record.ID)
	assert.Equal(t, "Remember the Shabbat day.", matches[0].MatchText)
}

func TestServer_SearchLanguageAndLimit(t *testing.T) {
	s := testServer(t)

	result, err := s.searchHandler(t.Context(), call(map[string]any{"query": "השבת", "language": "english"}))
	require.NoError(t, err)
	assert.Equal(t, "[]", text(t, result))

	result, err = s.searchHandler(t.Context(), call(map[string]any{"query": "e", "limit": float64(1)}))
	require.NoError(t, err)
	var matches []query.Match
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &matches))
	assert.Len(t, matches, 1)

	result, err = s.searchHandler(t.Context(), call(map[string]any{"query": "x", "language": "aramaic"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.searchHandler(t.Context(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_FilterByCategory(t *testing.T) {
	s := testServer(t)

	result, err := s.categoryHandler(t.Context(), call(map[string]any{"category": "halakhah"}))
	require.NoError(t, err)

	var records []models.Record
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &records))
	assert.Len(t, records, 2)
}

func TestServer_RandomAndStatistics(t *testing.T) {
	s := testServer(t)

	result, err := s.randomHandler(t.Context(), call(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = s.statisticsHandler(t.Context(), call(nil))
	require.NoError(t, err)
	var stats query.Statistics
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, []string{"Halakhah", "Shabbat"}, stats.Categories)
}

func TestServer_RandomOnEmptyCorpus(t *testing.T) {
	s, err := NewServer(Config{Name: "taryag"}, query.New(nil, 613))
	require.NoError(t, err)

	result, err := s.randomHandler(t.Context(), call(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
