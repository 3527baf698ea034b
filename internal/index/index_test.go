package index

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mfenderov/taryag/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPreview_TruncatesAtHundredCharacters(t *testing.T) {
	r := models.Record{
		ID: 1,
		EnglishText: models.Paragraphs{
			"Hello",
			"World, this sentence is long enough to exceed the one hundred character preview boundary for testing truncation behavior precisely",
		},
	}

	preview := ExtractPreview(r)

	require.True(t, strings.HasSuffix(preview, Ellipsis))
	body := strings.TrimSuffix(preview, Ellipsis)
	assert.Equal(t, 100, utf8.RuneCountInString(body))
	assert.True(t, strings.HasPrefix(body, "Hello World, this sentence"))
}

func TestExtractPreview_ShortTextUntouched(t *testing.T) {
	r := models.Record{ID: 1, EnglishText: models.Paragraphs{"Short", "text"}}
	assert.Equal(t, "Short text", ExtractPreview(r))
}

func TestExtractPreview_FallsBackToHebrew(t *testing.T) {
	hebrew := strings.Repeat("א", 150)
	r := models.Record{ID: 1, EnglishText: models.Paragraphs{}, HebrewText: models.Paragraphs{hebrew}}

	preview := ExtractPreview(r)

	assert.Equal(t, strings.Repeat("א", 100)+Ellipsis, preview)
}

func TestExtractPreview_NoText(t *testing.T) {
	assert.Equal(t, "", ExtractPreview(models.Record{ID: 4}))
}

func TestBuild_DerivesEntries(t *testing.T) {
	collection := models.Collection{
		{
			ID:          1,
			IndexTitle:  "Sefer HaChinukh",
			Title:       "ignored",
			HebrewTitle: "ספר החינוך",
			Categories:  []string{"Halakhah"},
			EnglishText: models.Paragraphs{"Be fruitful"},
			HebrewText:  models.Paragraphs{"פרו ורבו"},
		},
		{ID: 2, Title: "Circumcision", HebrewText: models.Paragraphs{"מילה"}},
		{ID: 5},
	}

	entries := Build(collection)

	require.Len(t, entries, 3)
	assert.Equal(t, models.IndexEntry{
		ID:          1,
		Title:       "Sefer HaChinukh",
		HebrewTitle: "ספר החינוך",
		Categories:  []string{"Halakhah"},
		Preview:     "Be fruitful",
		HasHebrew:   true,
		HasEnglish:  true,
	}, entries[0])
	assert.Equal(t, "Circumcision", entries[1].Title)
	assert.Equal(t, "מילה", entries[1].Preview)
	assert.False(t, entries[1].HasEnglish)
	assert.Equal(t, "Mitzvah 5", entries[2].Title)
	assert.Equal(t, []string{}, entries[2].Categories)
}

func TestBuild_EmptyCollection(t *testing.T) {
	entries := Build(nil)

	require.NotNil(t, entries)
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestBuild_Deterministic(t *testing.T) {
	collection := models.Collection{
		{ID: 9, Title: "nine", EnglishText: models.Paragraphs{"x"}},
		{ID: 2, Title: "two", HebrewText: models.Paragraphs{"ב"}},
	}

	first, err := json.MarshalIndent(Build(collection), "", "  ")
	require.NoError(t, err)
	second, err := json.MarshalIndent(Build(collection), "", "  ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []int{9, 2}, []int{Build(collection)[0].ID, Build(collection)[1].ID})
}
