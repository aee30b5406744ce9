package indexer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relnote/logvec/internal/embedder"
	"github.com/relnote/logvec/internal/vecstore"
	"github.com/relnote/logvec/pkg/types"
)

// ErrRebuildInProgress is returned when a full rebuild is requested while
// another one is still running
var ErrRebuildInProgress = fmt.Errorf("index rebuild already in progress")

const (
	// DefaultBatchSize bounds how many entries are embedded per provider
	// call during a full rebuild
	DefaultBatchSize = 3

	// DefaultBatchDelay spaces out provider calls between rebuild batches
	// to stay under hosted-API rate limits
	DefaultBatchDelay = 100 * time.Millisecond
)

// Indexer coordinates the embedding lifecycle: derive searchable text,
// embed, store. It is the only writer to the vector store.
type Indexer struct {
	store vecstore.Store
	emb   embedder.Embedder

	batchSize  int
	batchDelay time.Duration

	rebuild rebuildLock
	entries *entryLocks
}

// Config contains configuration for the indexer
type Config struct {
	BatchSize  int           // Entries per embedding batch during rebuild (default: DefaultBatchSize)
	BatchDelay time.Duration // Pause between rebuild batches (default: DefaultBatchDelay)
}

// Statistics describes the outcome of a full rebuild
type Statistics struct {
	TotalEntries  int
	Indexed       int
	Failed        int
	Duration      time.Duration
	ErrorMessages []string
}

// Summary renders the rebuild outcome in operator-facing form
func (s Statistics) Summary() string {
	return fmt.Sprintf("indexed %d/%d entries in %s (%d failed)",
		s.Indexed, s.TotalEntries, s.Duration.Round(time.Millisecond), s.Failed)
}

// ProgressFunc receives rebuild progress after each batch
type ProgressFunc func(done, total int)

// New creates a new Indexer instance
func New(store vecstore.Store, emb embedder.Embedder, config *Config) *Indexer {
	idx := &Indexer{
		store:      store,
		emb:        emb,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		entries:    newEntryLocks(),
	}
	if config != nil {
		if config.BatchSize > 0 {
			idx.batchSize = config.BatchSize
		}
		if config.BatchDelay > 0 {
			idx.batchDelay = config.BatchDelay
		}
	}
	return idx
}

// IndexEntry embeds a single changelog entry and upserts its record.
// Re-indexing an existing entry replaces the prior record in full, so an
// edited entry never searches against its stale vector.
func (idx *Indexer) IndexEntry(ctx context.Context, entry types.ChangelogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("index entry: %w", err)
	}

	lock := idx.entries.lock(entry.ID)
	defer lock.Unlock()

	return idx.indexLocked(ctx, entry)
}

func (idx *Indexer) indexLocked(ctx context.Context, entry types.ChangelogEntry) error {
	text := SearchableText(entry)
	emb, err := idx.emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		return fmt.Errorf("embed entry %d: %w", entry.ID, err)
	}

	record := vecstore.Record{
		ID:      entry.RecordID(),
		Content: text,
		Vector:  emb.Vector,
		Meta: vecstore.RecordMeta{
			ChangelogID: entry.ID,
			Version:     entry.Version,
			Product:     entry.Product,
			CreatedAt:   entry.CreatedAt,
		},
	}
	if err := idx.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("store entry %d: %w", entry.ID, err)
	}
	return nil
}

// RemoveEntry deletes the record for a changelog entry. Removing an entry
// that was never indexed is a no-op.
func (idx *Indexer) RemoveEntry(ctx context.Context, changelogID int64) error {
	if changelogID <= 0 {
		return fmt.Errorf("remove entry: %w", types.ErrInvalidEntryID)
	}

	lock := idx.entries.lock(changelogID)
	defer lock.Unlock()

	if err := idx.store.DeleteByChangelogID(ctx, changelogID); err != nil {
		return fmt.Errorf("remove entry %d: %w", changelogID, err)
	}
	return nil
}

// ApplyChange routes a single change event to the matching operation
func (idx *Indexer) ApplyChange(ctx context.Context, ev types.ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	switch ev.Kind {
	case types.ChangeDeleted:
		return idx.RemoveEntry(ctx, ev.Entry.ID)
	default:
		return idx.IndexEntry(ctx, ev.Entry)
	}
}

// Run consumes a change feed until the context is cancelled or the feed
// closes. Individual event failures are logged and skipped; one bad entry
// must not stall the feed.
func (idx *Indexer) Run(ctx context.Context, feed <-chan types.ChangeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			if err := idx.ApplyChange(ctx, ev); err != nil {
				log.Printf("change event %s for entry %d failed: %v", ev.Kind, ev.Entry.ID, err)
			}
		}
	}
}

// IndexAll drops every stored record and rebuilds the index from the given
// entries. Entries are embedded in small batches with a pause in between.
// A failed batch is retried entry by entry so a single malformed entry
// costs one record, not three; failures are collected in the returned
// Statistics rather than aborting the rebuild.
func (idx *Indexer) IndexAll(ctx context.Context, entries []types.ChangelogEntry, progress ProgressFunc) (*Statistics, error) {
	if !idx.rebuild.TryAcquire() {
		return nil, ErrRebuildInProgress
	}
	defer idx.rebuild.Release()

	startTime := time.Now()
	stats := &Statistics{
		TotalEntries:  len(entries),
		ErrorMessages: make([]string, 0),
	}

	if err := idx.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}

	for i := 0; i < len(entries); i += idx.batchSize {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(startTime)
			return stats, err
		}

		end := i + idx.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		idx.indexBatch(ctx, entries[i:end], stats)

		if progress != nil {
			progress(end, len(entries))
		}
		if end < len(entries) && idx.batchDelay > 0 {
			select {
			case <-ctx.Done():
				stats.Duration = time.Since(startTime)
				return stats, ctx.Err()
			case <-time.After(idx.batchDelay):
			}
		}
	}

	stats.Duration = time.Since(startTime)
	log.Printf("rebuild complete: %s", stats.Summary())
	return stats, nil
}

// indexBatch embeds one batch with a single provider call and upserts the
// results. On batch failure it falls back to per-entry indexing.
func (idx *Indexer) indexBatch(ctx context.Context, batch []types.ChangelogEntry, stats *Statistics) {
	valid := make([]types.ChangelogEntry, 0, len(batch))
	for _, entry := range batch {
		if err := entry.Validate(); err != nil {
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("entry %d: %v", entry.ID, err))
			continue
		}
		valid = append(valid, entry)
	}
	if len(valid) == 0 {
		return
	}

	texts := make([]string, len(valid))
	for i, entry := range valid {
		texts[i] = SearchableText(entry)
	}

	resp, err := idx.emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil || len(resp.Embeddings) != len(valid) {
		if err == nil {
			err = fmt.Errorf("batch returned %d embeddings for %d texts", len(resp.Embeddings), len(valid))
		}
		log.Printf("batch embedding failed, retrying entries individually: %v", err)
		idx.indexIndividually(ctx, valid, stats)
		return
	}

	for i, entry := range valid {
		record := vecstore.Record{
			ID:      entry.RecordID(),
			Content: texts[i],
			Vector:  resp.Embeddings[i].Vector,
			Meta: vecstore.RecordMeta{
				ChangelogID: entry.ID,
				Version:     entry.Version,
				Product:     entry.Product,
				CreatedAt:   entry.CreatedAt,
			},
		}
		if err := idx.store.Upsert(ctx, record); err != nil {
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("entry %d: %v", entry.ID, err))
			continue
		}
		stats.Indexed++
	}
}

func (idx *Indexer) indexIndividually(ctx context.Context, entries []types.ChangelogEntry, stats *Statistics) {
	for _, entry := range entries {
		if err := idx.indexLocked(ctx, entry); err != nil {
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("entry %d: %v", entry.ID, err))
			continue
		}
		stats.Indexed++
	}
}

// Count reports how many records the index currently holds
func (idx *Indexer) Count(ctx context.Context) (int, error) {
	return idx.store.Count(ctx)
}
