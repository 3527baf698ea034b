// Package index derives the compact, serializable summary of a collection.
package index

import (
	"github.com/mfenderov/taryag/pkg/models"
)

// PreviewLength is the number of characters kept in a preview.
const PreviewLength = 100

// Ellipsis marks truncated text.
const Ellipsis = "..."

// Build derives one entry per record, in collection order. The result is
// never nil, so an empty collection serializes as an empty list.
func Build(collection models.Collection) []models.IndexEntry {
	entries := make([]models.IndexEntry, 0, len(collection))
	for _, r := range collection {
		categories := r.Categories
		if categories == nil {
			categories = []string{}
		}
		entries = append(entries, models.IndexEntry{
			ID:          r.ID,
			Title:       r.DisplayTitle(),
			HebrewTitle: r.HebrewTitle,
			Categories:  categories,
			Preview:     ExtractPreview(r),
			HasHebrew:   r.HasHebrew(),
			HasEnglish:  r.HasEnglish(),
		})
	}
	return entries
}

// ExtractPreview returns the first PreviewLength characters of the English
// text, or of the Hebrew text when there is no English, with Ellipsis
// appended only if the text was cut.
func ExtractPreview(r models.Record) string {
	text := r.Hebrew()
	if r.HasEnglish() {
		text = r.English()
	}
	return Truncate(text, PreviewLength)
}

// Truncate cuts s to n characters, appending Ellipsis when anything was removed.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + Ellipsis
}
