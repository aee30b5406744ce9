// Package vecstore persists vector records derived from changelog entries.
//
// A Record holds the embedded text, its vector, and denormalized entry
// metadata (version, product, source id, creation time). Exactly one record
// exists per live changelog entry; record ids are derived from the source
// primary key, so upserts are idempotent and updates replace in place.
//
// # Backends
//
//   - SQLiteStore: local file, vectors as little-endian float32 blobs,
//     versioned migrations. The default for single-machine deployments.
//   - BoltStore: embedded bbolt file with JSON-encoded records. No SQL
//     dependency at all; the per-client option.
//   - PostgresStore: pgvector-typed column; additionally implements
//     NativeRanker so ranking can run server-side.
//   - MemoryStore: in-memory, for tests and throwaway use.
//
// # Invariants
//
// Every backend enforces, at write time:
//
//   - vector length equals the store's fixed dimension (ErrDimensionMismatch)
//   - no NaN or infinite components (ErrMalformedVector)
//
// A rejected upsert leaves any previously stored record for the same id
// untouched. Deletes are idempotent; removing zero records succeeds.
// Backend outages surface as ErrStoreUnavailable and are never swallowed:
// a silently dropped write would cause invisible index drift.
//
// # Native Ranking
//
// Stores that can rank server-side expose the optional NativeRanker
// capability. The search engine probes for it with a type assertion and
// falls back to its own linear scan when the capability is absent or the
// native call fails.
package vecstore
