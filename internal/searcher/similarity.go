package searcher

import (
	"log"
	"math"
	"sort"

	"github.com/relnote/logvec/internal/vecstore"
)

// Default ranking parameters. Both are tunable configuration, not derived
// from data: the corpus is too small for adaptive thresholds to be stable.
const (
	// DefaultThreshold is the minimum similarity (strict) for a record to
	// appear in results. Without a floor, a query with no truly relevant
	// entries would return arbitrary low-similarity noise as context.
	DefaultThreshold = 0.1

	// DefaultLimit is the default maximum result count
	DefaultLimit = 3
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Degenerate inputs never poison the result:
//   - mismatched lengths score 0
//   - a zero vector on either side scores 0 (no division by zero)
//   - any NaN component scores 0 (NaN is unordered and would corrupt sorts)
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return 0
		}
		dotProduct += fa * fb
		normA += fa * fa
		normB += fb * fb
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(similarity) || math.IsInf(similarity, 0) {
		return 0
	}
	return similarity
}

// RankVectors scores every record against the query vector, keeps those
// strictly above threshold, sorts descending, and truncates to limit.
// Records whose vector length disagrees with the query are excluded and
// logged as data-integrity anomalies; they are an operator problem
// (re-embedding), not a query error. The sort is stable, so ties keep the
// store's scan order and ranking is deterministic for a fixed input set.
func RankVectors(records []vecstore.Record, query []float32, threshold float64, limit int) []vecstore.ScoredRecord {
	if limit <= 0 {
		return []vecstore.ScoredRecord{}
	}

	scored := make([]vecstore.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) != len(query) {
			log.Printf("vector index anomaly: record %s has dimension %d, query has %d; excluded from ranking",
				rec.ID, len(rec.Vector), len(query))
			continue
		}

		similarity := CosineSimilarity(query, rec.Vector)
		if similarity > threshold {
			scored = append(scored, vecstore.ScoredRecord{Record: rec, Similarity: similarity})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
