package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relnote/logvec/internal/embedder"
	"github.com/relnote/logvec/internal/vecstore"
	"github.com/relnote/logvec/pkg/types"
)

const testDim = 4

// fakeEmbedder produces a deterministic vector from the text length so
// tests can assert replacement without real embeddings
type fakeEmbedder struct {
	mu         sync.Mutex
	singles    int
	batches    int
	failSingle error
	failBatch  error
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 1, 0, 0}
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	f.mu.Lock()
	f.singles++
	f.mu.Unlock()
	if f.failSingle != nil {
		return nil, f.failSingle
	}
	return &embedder.Embedding{
		Vector:    f.vectorFor(req.Text),
		Dimension: testDim,
		Provider:  "fake",
		Model:     "fake",
	}, nil
}

func (f *fakeEmbedder) GenerateBatch(_ context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	if f.failBatch != nil {
		return nil, f.failBatch
	}
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		embeddings[i] = &embedder.Embedding{
			Vector:    f.vectorFor(text),
			Dimension: testDim,
			Provider:  "fake",
			Model:     "fake",
		}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "fake", Model: "fake"}, nil
}

func (f *fakeEmbedder) Dimension() int   { return testDim }
func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Model() string    { return "fake" }
func (f *fakeEmbedder) Close() error     { return nil }

func testEntry(id int64) types.ChangelogEntry {
	return types.ChangelogEntry{
		ID:        id,
		Version:   fmt.Sprintf("1.0.%d", id),
		Content:   fmt.Sprintf("Release notes for build %d", id),
		Product:   "API Gateway",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestIndexer() (*Indexer, *vecstore.MemoryStore, *fakeEmbedder) {
	store := vecstore.NewMemoryStore(testDim)
	emb := &fakeEmbedder{}
	return New(store, emb, &Config{BatchDelay: time.Microsecond}), store, emb
}

func TestSearchableText(t *testing.T) {
	entry := types.ChangelogEntry{
		Version: "2.1.0",
		Product: "API Gateway",
		Content: "Added OAuth support",
	}
	assert.Equal(t, "Version 2.1.0\n\nProduct: API Gateway\n\nAdded OAuth support", SearchableText(entry))

	entry.Product = ""
	assert.Equal(t, "Version 2.1.0\n\nAdded OAuth support", SearchableText(entry))
}

func TestIndexEntryStoresRecord(t *testing.T) {
	idx, store, _ := newTestIndexer()
	ctx := context.Background()

	entry := testEntry(42)
	require.NoError(t, idx.IndexEntry(ctx, entry))

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "changelog_42", records[0].ID)
	assert.Equal(t, int64(42), records[0].Meta.ChangelogID)
	assert.Equal(t, "1.0.42", records[0].Meta.Version)
	assert.Equal(t, "API Gateway", records[0].Meta.Product)
	assert.Equal(t, SearchableText(entry), records[0].Content)
	assert.Len(t, records[0].Vector, testDim)
}

func TestIndexEntryReplacesOnReindex(t *testing.T) {
	idx, store, _ := newTestIndexer()
	ctx := context.Background()

	entry := testEntry(1)
	require.NoError(t, idx.IndexEntry(ctx, entry))

	entry.Content = "Rewritten notes with considerably more detail than before"
	require.NoError(t, idx.IndexEntry(ctx, entry))

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, SearchableText(entry), records[0].Content)
	assert.Equal(t, float32(len(SearchableText(entry))), records[0].Vector[0])
}

func TestIndexEntryRejectsInvalid(t *testing.T) {
	idx, store, _ := newTestIndexer()
	ctx := context.Background()

	bad := testEntry(1)
	bad.Content = ""
	assert.ErrorIs(t, idx.IndexEntry(ctx, bad), types.ErrEmptyContent)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexEntryEmbedFailure(t *testing.T) {
	store := vecstore.NewMemoryStore(testDim)
	emb := &fakeEmbedder{failSingle: errors.New("provider down")}
	idx := New(store, emb, nil)

	err := idx.IndexEntry(context.Background(), testEntry(1))
	assert.Error(t, err)

	count, cerr := store.Count(context.Background())
	require.NoError(t, cerr)
	assert.Equal(t, 0, count)
}

func TestIndexEntryWrongDimensionKeepsPriorRecord(t *testing.T) {
	store := vecstore.NewMemoryStore(testDim)
	emb := &fakeEmbedder{}
	idx := New(store, emb, nil)
	ctx := context.Background()

	entry := testEntry(1)
	require.NoError(t, idx.IndexEntry(ctx, entry))
	before, err := store.GetAll(ctx)
	require.NoError(t, err)

	// Simulate a backend fault producing a short vector
	badIdx := New(store, &shortVectorEmbedder{}, nil)
	err = badIdx.IndexEntry(ctx, entry)
	assert.ErrorIs(t, err, vecstore.ErrDimensionMismatch)

	after, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].Vector, after[0].Vector, "prior record must survive the faulty write")
}

// shortVectorEmbedder simulates a provider returning the wrong dimension
type shortVectorEmbedder struct{ fakeEmbedder }

func (s *shortVectorEmbedder) GenerateEmbedding(_ context.Context, _ embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return &embedder.Embedding{Vector: []float32{1, 0}, Dimension: 2, Provider: "fake", Model: "fake"}, nil
}

func TestRemoveEntry(t *testing.T) {
	idx, store, _ := newTestIndexer()
	ctx := context.Background()

	require.NoError(t, idx.IndexEntry(ctx, testEntry(7)))
	require.NoError(t, idx.RemoveEntry(ctx, 7))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Removing an entry that was never indexed is a no-op
	require.NoError(t, idx.RemoveEntry(ctx, 999))

	assert.ErrorIs(t, idx.RemoveEntry(ctx, 0), types.ErrInvalidEntryID)
	assert.ErrorIs(t, idx.RemoveEntry(ctx, -3), types.ErrInvalidEntryID)
}

func TestIndexAllRebuildsFromScratch(t *testing.T) {
	idx, store, emb := newTestIndexer()
	ctx := context.Background()

	// A stale record from a previous run must not survive the rebuild
	require.NoError(t, idx.IndexEntry(ctx, testEntry(99)))

	entries := []types.ChangelogEntry{testEntry(1), testEntry(2), testEntry(3), testEntry(4)}
	stats, err := idx.IndexAll(ctx, entries, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 4, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)
	assert.Empty(t, stats.ErrorMessages)

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, rec := range records {
		assert.NotEqual(t, int64(99), rec.Meta.ChangelogID)
	}

	// 4 entries at batch size 3 means two provider calls
	assert.Equal(t, 2, emb.batches)
}

func TestIndexAllEmptySource(t *testing.T) {
	idx, store, _ := newTestIndexer()
	ctx := context.Background()

	require.NoError(t, idx.IndexEntry(ctx, testEntry(1)))

	stats, err := idx.IndexAll(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Equal(t, 0, stats.Indexed)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "rebuild from an empty source leaves an empty index")
}

func TestIndexAllSkipsInvalidEntries(t *testing.T) {
	idx, _, _ := newTestIndexer()

	bad := testEntry(2)
	bad.Version = ""
	entries := []types.ChangelogEntry{testEntry(1), bad, testEntry(3)}

	stats, err := idx.IndexAll(context.Background(), entries, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "entry 2")
}

func TestIndexAllFallsBackWhenBatchFails(t *testing.T) {
	store := vecstore.NewMemoryStore(testDim)
	emb := &fakeEmbedder{failBatch: errors.New("batch endpoint unavailable")}
	idx := New(store, emb, &Config{BatchDelay: time.Microsecond})

	entries := []types.ChangelogEntry{testEntry(1), testEntry(2)}
	stats, err := idx.IndexAll(context.Background(), entries, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 2, emb.singles, "each entry retried individually")
}

func TestIndexAllReportsProgress(t *testing.T) {
	idx, _, _ := newTestIndexer()

	var calls [][2]int
	entries := []types.ChangelogEntry{testEntry(1), testEntry(2), testEntry(3), testEntry(4)}
	_, err := idx.IndexAll(context.Background(), entries, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{3, 4}, {4, 4}}, calls)
}

func TestIndexAllRejectsConcurrentRebuild(t *testing.T) {
	idx, _, _ := newTestIndexer()

	require.True(t, idx.rebuild.TryAcquire())
	defer idx.rebuild.Release()

	_, err := idx.IndexAll(context.Background(), []types.ChangelogEntry{testEntry(1)}, nil)
	assert.ErrorIs(t, err, ErrRebuildInProgress)
}

func TestIndexAllHonorsCancellation(t *testing.T) {
	idx, _, _ := newTestIndexer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := idx.IndexAll(ctx, []types.ChangelogEntry{testEntry(1)}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.Indexed)
}

func TestApplyChangeRouting(t *testing.T) {
	idx, store, _ := newTestIndexer()
	ctx := context.Background()

	entry := testEntry(5)
	require.NoError(t, idx.ApplyChange(ctx, types.ChangeEvent{Kind: types.ChangeCreated, Entry: entry}))

	entry.Content = "Amended notes"
	require.NoError(t, idx.ApplyChange(ctx, types.ChangeEvent{Kind: types.ChangeUpdated, Entry: entry}))

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, SearchableText(entry), records[0].Content)

	require.NoError(t, idx.ApplyChange(ctx, types.ChangeEvent{Kind: types.ChangeDeleted, Entry: entry}))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.Error(t, idx.ApplyChange(ctx, types.ChangeEvent{Kind: "renamed", Entry: entry}))
}

func TestRunConsumesFeed(t *testing.T) {
	idx, store, _ := newTestIndexer()

	feed := make(chan types.ChangeEvent, 3)
	feed <- types.ChangeEvent{Kind: types.ChangeCreated, Entry: testEntry(1)}
	feed <- types.ChangeEvent{Kind: types.ChangeCreated, Entry: testEntry(2)}
	feed <- types.ChangeEvent{Kind: types.ChangeDeleted, Entry: testEntry(1)}
	close(feed)

	require.NoError(t, idx.Run(context.Background(), feed))

	records, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].Meta.ChangelogID)
}

func TestRunSkipsFailingEvents(t *testing.T) {
	idx, store, _ := newTestIndexer()

	bad := testEntry(1)
	bad.Content = ""

	feed := make(chan types.ChangeEvent, 2)
	feed <- types.ChangeEvent{Kind: types.ChangeCreated, Entry: bad}
	feed <- types.ChangeEvent{Kind: types.ChangeCreated, Entry: testEntry(2)}
	close(feed)

	require.NoError(t, idx.Run(context.Background(), feed))

	records, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].Meta.ChangelogID)
}

func TestRunStopsOnCancel(t *testing.T) {
	idx, _, _ := newTestIndexer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := idx.Run(ctx, make(chan types.ChangeEvent))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexingIsDeterministic(t *testing.T) {
	local, err := embedder.NewLocalProvider(embedder.NewCache(16))
	require.NoError(t, err)

	store := vecstore.NewMemoryStore(local.Dimension())
	idx := New(store, local, nil)
	ctx := context.Background()

	entry := testEntry(1)
	require.NoError(t, idx.IndexEntry(ctx, entry))
	first, err := store.GetAll(ctx)
	require.NoError(t, err)

	require.NoError(t, idx.IndexEntry(ctx, entry))
	second, err := store.GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first[0].Vector, second[0].Vector)
}
