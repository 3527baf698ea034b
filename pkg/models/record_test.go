package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParagraphs_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Paragraphs
	}{
		{"single string", `"one paragraph"`, Paragraphs{"one paragraph"}},
		{"list of strings", `["a", "b"]`, Paragraphs{"a", "b"}},
		{"nested lists", `[["a", "b"], ["c"]]`, Paragraphs{"a", "b", "c"}},
		{"empty strings dropped", `["", "a", ""]`, Paragraphs{"a"}},
		{"empty string", `""`, Paragraphs{}},
		{"null", `null`, Paragraphs{}},
		{"number degrades", `42`, Paragraphs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Paragraphs
			require.NoError(t, json.Unmarshal([]byte(tt.json), &p))
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestParagraphs_MarshalNilAsList(t *testing.T) {
	data, err := json.Marshal(Paragraphs(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRecord_UnmarshalSourcePayload(t *testing.T) {
	payload := `{
		"ref": "Sefer HaChinukh 1",
		"heRef": "ספר החינוך א׳",
		"indexTitle": "Sefer HaChinukh",
		"title": "Mitzvah 1",
		"heTitle": "ספר החינוך",
		"categories": ["Halakhah", "Sefer HaMitzvot"],
		"text": ["To be fruitful and multiply.", "<b>Second</b> paragraph."],
		"he": "פרו ורבו"
	}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, 0, r.ID, "id is assigned by the pipeline, not the source")
	assert.Equal(t, "Sefer HaChinukh", r.IndexTitle)
	assert.Equal(t, []string{"Halakhah", "Sefer HaMitzvot"}, r.Categories)
	assert.Equal(t, Paragraphs{"To be fruitful and multiply.", "<b>Second</b> paragraph."}, r.EnglishText)
	assert.Equal(t, Paragraphs{"פרו ורבו"}, r.HebrewText)
	assert.True(t, r.HasEnglish())
	assert.True(t, r.HasHebrew())
}

func TestRecord_UnmarshalDegradesOptionalFields(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"title": 7, "categories": "Halakhah", "text": {"x": 1}}`), &r))

	assert.Empty(t, r.Title)
	assert.Equal(t, []string{"Halakhah"}, r.Categories)
	assert.Equal(t, Paragraphs{}, r.EnglishText)
	assert.False(t, r.HasEnglish())
	assert.False(t, r.HasHebrew())
}

func TestRecord_UnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`["not", "an", "object"]`), &r))
}

func TestRecord_RoundTrip(t *testing.T) {
	r := Record{
		ID:          12,
		Title:       "Mitzvah 12",
		HebrewTitle: "מצוה יב",
		Categories:  []string{"Halakhah"},
		EnglishText: Paragraphs{"a", "b"},
		HebrewText:  Paragraphs{},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r, decoded)
}

func TestRecord_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Index", Record{ID: 1, IndexTitle: "Index", Title: "Title"}.DisplayTitle())
	assert.Equal(t, "Title", Record{ID: 1, Title: "Title"}.DisplayTitle())
	assert.Equal(t, "Mitzvah 7", Record{ID: 7}.DisplayTitle())
}

func TestCollection_Normalize(t *testing.T) {
	c := Collection{
		{ID: 3, Title: "first three"},
		{ID: 0},
		{ID: 1},
		{ID: 3, Title: "second three"},
		{ID: 614},
	}

	got := c.Normalize(613)

	assert.Equal(t, []int{3, 1}, got.IDs())
	assert.Equal(t, "first three", got[0].Title)
	assert.NotNil(t, got[1].Categories)
}

func TestCollection_SortByID(t *testing.T) {
	c := Collection{{ID: 5}, {ID: 2}, {ID: 9}}
	c.SortByID()
	assert.Equal(t, []int{2, 5, 9}, c.IDs())
}

func TestFailures_Dedupe(t *testing.T) {
	f := Failures{{ID: 2, Error: "old"}, {ID: 5, Error: "x"}, {ID: 2, Error: "new"}}

	got := f.Dedupe()

	assert.Equal(t, []int{2, 5}, got.IDs())
	assert.Equal(t, "new", got[0].Error)
}
