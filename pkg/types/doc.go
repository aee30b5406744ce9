// Package types provides shared type definitions for the logvec retrieval
// engine.
//
// This package defines the domain types exchanged between the lifecycle
// coordinator, the vector store, the search engine, and callers: changelog
// entries, change events, and search results.
//
// # Core Types
//
// ChangelogEntry mirrors the shape of a row in the source-of-truth table:
//
//	entry := types.ChangelogEntry{
//	    ID:      42,
//	    Version: "2.3.0",
//	    Product: "API Gateway",
//	    Content: "- Added rate limiting\n- Fixed pagination",
//	}
//
// ChangeEvent carries a row-level create/update/delete notification into the
// lifecycle coordinator. The concrete transport (Postgres NOTIFY, polling,
// a queue) is a collaborator detail.
//
// SearchResult combines a stored vector record with its query-time cosine
// similarity. Similarity is never NaN in results returned by the engine;
// DisplayPercent additionally clamps for presentation:
//
//	for _, r := range results {
//	    fmt.Printf("%s (%d%% match)\n", r.Version, r.DisplayPercent())
//	}
//
// AutoSelect implements the caller-side selection band on top of ranked
// results; ranking and selection policy are deliberately decoupled.
package types
