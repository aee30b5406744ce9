// Package indexer coordinates the embedding lifecycle for changelog
// entries: deriving searchable text, generating embeddings, and keeping
// the vector store in step with the source of record.
//
// It supports two maintenance modes. IndexAll drops the index and rebuilds
// it from a full entry listing, embedding in small rate-limited batches.
// Run consumes an incremental change feed and applies create, update, and
// delete events as they arrive, serialized per entry so concurrent updates
// to the same changelog row resolve to the last write.
package indexer
