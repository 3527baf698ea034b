package models

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Paragraphs is a normalized text field. The source API returns text either
// as a single string, a list of strings, or nested lists of strings; all of
// them decode into one ordered list of non-empty paragraphs.
type Paragraphs []string

// UnmarshalJSON flattens any string/array shape into paragraphs.
// Values of any other type decode to an empty list.
func (p *Paragraphs) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = flatten(v, Paragraphs{})
	return nil
}

// MarshalJSON always writes a list, never null.
func (p Paragraphs) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}

// Join concatenates the paragraphs with a single space.
func (p Paragraphs) Join() string {
	return strings.Join(p, " ")
}

// Empty reports whether the field carries no text.
func (p Paragraphs) Empty() bool {
	return strings.TrimSpace(p.Join()) == ""
}

func flatten(v any, out Paragraphs) Paragraphs {
	switch t := v.(type) {
	case string:
		if t != "" {
			out = append(out, t)
		}
	case []any:
		for _, item := range t {
			out = flatten(item, out)
		}
	}
	return out
}

// Record is one mitzvah as returned by the texts API, stamped with its number.
type Record struct {
	ID          int        `json:"id"`
	Ref         string     `json:"ref,omitempty"`
	HeRef       string     `json:"heRef,omitempty"`
	Title       string     `json:"title,omitempty"`
	HebrewTitle string     `json:"heTitle,omitempty"`
	IndexTitle  string     `json:"indexTitle,omitempty"`
	Categories  []string   `json:"categories"`
	EnglishText Paragraphs `json:"text"`
	HebrewText  Paragraphs `json:"he"`
}

// UnmarshalJSON decodes a record leniently: optional fields of an
// unexpected type degrade to empty values instead of failing the decode.
// A payload that is not a JSON object is still an error.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		Ref         json.RawMessage `json:"ref"`
		HeRef       json.RawMessage `json:"heRef"`
		Title       json.RawMessage `json:"title"`
		HebrewTitle json.RawMessage `json:"heTitle"`
		IndexTitle  json.RawMessage `json:"indexTitle"`
		Categories  json.RawMessage `json:"categories"`
		EnglishText json.RawMessage `json:"text"`
		HebrewText  json.RawMessage `json:"he"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		ID:          looseInt(raw.ID),
		Ref:         looseString(raw.Ref),
		HeRef:       looseString(raw.HeRef),
		Title:       looseString(raw.Title),
		HebrewTitle: looseString(raw.HebrewTitle),
		IndexTitle:  looseString(raw.IndexTitle),
		Categories:  []string(looseParagraphs(raw.Categories)),
		EnglishText: looseParagraphs(raw.EnglishText),
		HebrewText:  looseParagraphs(raw.HebrewText),
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func looseInt(raw json.RawMessage) int {
	var n int
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return 0
	}
	return n
}

func looseParagraphs(raw json.RawMessage) Paragraphs {
	var p Paragraphs
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil {
		return Paragraphs{}
	}
	return p
}

// English returns the English paragraphs joined into one string.
func (r Record) English() string { return r.EnglishText.Join() }

// Hebrew returns the Hebrew paragraphs joined into one string.
func (r Record) Hebrew() string { return r.HebrewText.Join() }

// HasEnglish reports whether the record carries English text.
func (r Record) HasEnglish() bool { return !r.EnglishText.Empty() }

// HasHebrew reports whether the record carries Hebrew text.
func (r Record) HasHebrew() bool { return !r.HebrewText.Empty() }

// DisplayTitle prefers the structured index title, then the generic title,
// then a numbered placeholder.
func (r Record) DisplayTitle() string {
	if r.IndexTitle != "" {
		return r.IndexTitle
	}
	if r.Title != "" {
		return r.Title
	}
	return fmt.Sprintf("Mitzvah %d", r.ID)
}

// Collection is the ordered set of acquired records, unique by ID.
type Collection []Record

// Normalize drops records whose ID is outside [1, maxID] and every repeated
// ID after its first occurrence. Order is otherwise preserved.
func (c Collection) Normalize(maxID int) Collection {
	out := make(Collection, 0, len(c))
	seen := make(map[int]bool, len(c))
	for _, r := range c {
		if r.ID < 1 || r.ID > maxID {
			slog.Warn("dropping record with out-of-range id", "id", r.ID)
			continue
		}
		if seen[r.ID] {
			slog.Warn("dropping duplicate record", "id", r.ID)
			continue
		}
		seen[r.ID] = true
		if r.Categories == nil {
			r.Categories = []string{}
		}
		out = append(out, r)
	}
	return out
}

// SortByID orders the collection by ascending ID in place.
func (c Collection) SortByID() {
	sort.SliceStable(c, func(i, j int) bool { return c[i].ID < c[j].ID })
}

// IDs returns the record IDs in collection order.
func (c Collection) IDs() []int {
	ids := make([]int, len(c))
	for i, r := range c {
		ids[i] = r.ID
	}
	return ids
}
