// Package query answers lookups and searches over a loaded collection.
//
// An Engine is built once from a collection and is read-only afterwards.
// Every operation degrades to an empty or absent result instead of failing.
package query

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mfenderov/taryag/internal/index"
	"github.com/mfenderov/taryag/pkg/models"
)

// Language selects which text fields a search looks at.
type Language string

const (
	English Language = "english"
	Hebrew  Language = "hebrew"
	Both    Language = "both"
)

// ParseLanguage maps user input onto a Language.
func ParseLanguage(s string) (Language, bool) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case English, Hebrew, Both:
		return l, true
	}
	return "", false
}

// ContextRadius is how many characters a snippet keeps on each side of a match.
const ContextRadius = 50

// Match is a search hit with a snippet of the text around the term.
type Match struct {
	Record    models.Record `json:"mitzvah"`
	MatchText string        `json:"matchText"`
}

// Statistics summarizes a collection.
type Statistics struct {
	Total             int      `json:"total"`
	WithEnglish       int      `json:"withEnglish"`
	WithHebrew        int      `json:"withHebrew"`
	Categories        []string `json:"categories"`
	AverageTextLength int      `json:"averageTextLength"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used by Random.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// Engine serves queries over one collection.
type Engine struct {
	records models.Collection
	byID    map[int]int
	maxID   int
	rng     *rand.Rand
}

// New builds an Engine. Records outside [1, maxID] and duplicate IDs are
// dropped. A nil collection yields an engine that answers everything empty.
func New(collection models.Collection, maxID int, opts ...Option) *Engine {
	records := collection.Normalize(maxID)
	e := &Engine{
		records: records,
		byID:    make(map[int]int, len(records)),
		maxID:   maxID,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for i, r := range records {
		e.byID[r.ID] = i
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Len returns the number of loaded records.
func (e *Engine) Len() int {
	return len(e.records)
}

// Records returns the loaded records in collection order.
func (e *Engine) Records() models.Collection {
	return e.records
}

// GetByID returns the record with the given number. IDs outside [1, maxID]
// and unknown IDs both report false.
func (e *Engine) GetByID(id int) (models.Record, bool) {
	if id < 1 || id > e.maxID {
		return models.Record{}, false
	}
	i, ok := e.byID[id]
	if !ok {
		return models.Record{}, false
	}
	return e.records[i], true
}

// Search finds records containing term. English text and the English title
// match case-insensitively; Hebrew text and the Hebrew title match exactly,
// since Hebrew has no letter case. A title hit matches regardless of lang.
func (e *Engine) Search(term string, lang Language) []Match {
	matches := []Match{}
	if term == "" {
		return matches
	}

	searchEnglish := lang == English || lang == Both
	searchHebrew := lang == Hebrew || lang == Both
	if !searchEnglish && !searchHebrew {
		slog.Warn("unknown search language", "language", lang)
		return matches
	}

	folded := fold(term)
	for _, r := range e.records {
		english := r.English()
		hebrew := r.Hebrew()

		inEnglish := searchEnglish && strings.Contains(fold(english), folded)
		inHebrew := searchHebrew && strings.Contains(hebrew, term)
		inTitle := strings.Contains(fold(r.Title), folded) || strings.Contains(r.HebrewTitle, term)
		if !inEnglish && !inHebrew && !inTitle {
			continue
		}

		var snippet string
		switch {
		case inEnglish:
			snippet = Snippet(english, term, true)
		case inHebrew:
			snippet = Snippet(hebrew, term, false)
		// Title-only hit: head of the searched body, else of the other one.
		case searchEnglish && english != "":
			snippet = Snippet(english, term, true)
		default:
			snippet = Snippet(hebrew, term, false)
		}

		matches = append(matches, Match{Record: r, MatchText: snippet})
	}
	return matches
}

// Snippet returns about 2*ContextRadius characters of text centred on the
// first occurrence of term, with index.Ellipsis on each side that was cut.
// When term does not occur in text, the head of text is returned instead,
// always followed by index.Ellipsis.
func Snippet(text, term string, ignoreCase bool) string {
	haystack, needle := text, term
	if ignoreCase {
		haystack, needle = fold(text), fold(term)
	}

	at := strings.Index(haystack, needle)
	if term == "" || at < 0 {
		runes := []rune(text)
		if len(runes) > index.PreviewLength {
			runes = runes[:index.PreviewLength]
		}
		return string(runes) + index.Ellipsis
	}

	// fold maps rune to rune, so rune offsets agree between haystack and text.
	runes := []rune(text)
	pos := utf8.RuneCountInString(haystack[:at])
	end := pos + utf8.RuneCountInString(needle)

	from := max(0, pos-ContextRadius)
	to := min(len(runes), end+ContextRadius)

	var b strings.Builder
	if from > 0 {
		b.WriteString(index.Ellipsis)
	}
	b.WriteString(string(runes[from:to]))
	if to < len(runes) {
		b.WriteString(index.Ellipsis)
	}
	return b.String()
}

// FilterByCategory returns records with a category containing sub,
// compared case-insensitively.
func (e *Engine) FilterByCategory(sub string) []models.Record {
	out := []models.Record{}
	if strings.TrimSpace(sub) == "" {
		return out
	}

	folded := fold(sub)
	for _, r := range e.records {
		for _, c := range r.Categories {
			if strings.Contains(fold(c), folded) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Random returns a uniformly chosen record.
func (e *Engine) Random() (models.Record, bool) {
	if len(e.records) == 0 {
		return models.Record{}, false
	}
	return e.records[e.rng.IntN(len(e.records))], true
}

// Statistics summarizes the loaded collection. AverageTextLength is the
// rounded mean character count of the English text over all records.
func (e *Engine) Statistics() Statistics {
	stats := Statistics{Categories: []string{}}
	seen := make(map[string]bool)
	totalLength := 0

	for _, r := range e.records {
		stats.Total++
		if r.HasEnglish() {
			stats.WithEnglish++
		}
		if r.HasHebrew() {
			stats.WithHebrew++
		}
		for _, c := range r.Categories {
			if !seen[c] {
				seen[c] = true
				stats.Categories = append(stats.Categories, c)
			}
		}
		totalLength += utf8.RuneCountInString(r.English())
	}

	sort.Strings(stats.Categories)
	if stats.Total > 0 {
		stats.AverageTextLength = int(math.Round(float64(totalLength) / float64(stats.Total)))
	}
	return stats
}

func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}
