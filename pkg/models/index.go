package models

// IndexEntry is the derived, disposable summary of one record.
type IndexEntry struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	HebrewTitle string   `json:"heTitle"`
	Categories  []string `json:"categories"`
	Preview     string   `json:"preview"`
	HasHebrew   bool     `json:"hasHebrew"`
	HasEnglish  bool     `json:"hasEnglish"`
}

// FailureRecord notes an ID whose acquisition failed and why.
type FailureRecord struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// Failures is a set of failure records keyed by ID.
type Failures []FailureRecord

// Dedupe keeps the last failure recorded for each ID, ordered by first appearance.
func (f Failures) Dedupe() Failures {
	pos := make(map[int]int, len(f))
	out := make(Failures, 0, len(f))
	for _, rec := range f {
		if i, ok := pos[rec.ID]; ok {
			out[i] = rec
			continue
		}
		pos[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

// IDs returns the failed IDs in order.
func (f Failures) IDs() []int {
	ids := make([]int, len(f))
	for i, rec := range f {
		ids[i] = rec.ID
	}
	return ids
}
