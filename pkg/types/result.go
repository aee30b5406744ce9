package types

import (
	"math"
	"time"
)

// SearchResult represents a single similarity match against the vector index
type SearchResult struct {
	// Identification
	ID          string // Vector record id ("changelog_<pk>")
	ChangelogID int64

	// Denormalized entry attributes carried on the vector record
	Version   string
	Product   string
	CreatedAt time.Time

	// Content is the exact text that was embedded for this record
	Content string

	// Similarity is cosine similarity against the query, in [-1, 1]
	// for well-formed vectors. Degenerate inputs are scored 0 upstream.
	Similarity float64
}

// DisplayPercent converts the similarity to a 0-100 integer for display.
// Non-finite scores render as 0, never as "NaN%".
func (sr *SearchResult) DisplayPercent() int {
	if math.IsNaN(sr.Similarity) || math.IsInf(sr.Similarity, 0) {
		return 0
	}
	pct := int(math.Round(sr.Similarity * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// AutoSelect applies the consumer-side selection policy used by the
// generation-context picker: take every result above the confidence band,
// or fall back to the single top result when nothing clears it. Results
// are assumed to be sorted by similarity descending, as returned by search.
func AutoSelect(results []SearchResult, band float64) []SearchResult {
	selected := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity > band {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 && len(results) > 0 {
		selected = append(selected, results[0])
	}
	return selected
}
