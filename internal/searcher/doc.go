// Package searcher implements similarity search over stored changelog
// embeddings.
//
// A search embeds the free-text query and ranks stored records by cosine
// similarity. Ranking runs in one of two tiers with identical semantics:
// stores that implement vecstore.NativeRanker (such as pgvector-backed
// Postgres) rank server-side, everything else is scored by a client-side
// linear scan. Results strictly above the threshold are returned in
// descending similarity order, truncated to the limit.
//
// Query embedding failures degrade to empty results rather than errors, so
// a flaky embedding provider cannot block callers that treat search output
// as optional context.
package searcher
