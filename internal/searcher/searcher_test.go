package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relnote/logvec/internal/embedder"
	"github.com/relnote/logvec/internal/vecstore"
)

// stubEmbedder returns a fixed vector for every query, or a fixed error
type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) GenerateEmbedding(_ context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &embedder.Embedding{
		Vector:    s.vector,
		Dimension: len(s.vector),
		Provider:  "stub",
		Model:     "stub",
		Hash:      embedder.ComputeHash(req.Text),
	}, nil
}

func (s *stubEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	embeddings := make([]*embedder.Embedding, 0, len(req.Texts))
	for _, text := range req.Texts {
		emb, err := s.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, emb)
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "stub", Model: "stub"}, nil
}

func (s *stubEmbedder) Dimension() int   { return len(s.vector) }
func (s *stubEmbedder) Provider() string { return "stub" }
func (s *stubEmbedder) Model() string    { return "stub" }
func (s *stubEmbedder) Close() error     { return nil }

// nativeStore wraps a MemoryStore with a scripted native ranking path
type nativeStore struct {
	*vecstore.MemoryStore
	results []vecstore.ScoredRecord
	err     error
	calls   int
}

func (n *nativeStore) SearchNative(_ context.Context, _ []float32, threshold float64, limit int) ([]vecstore.ScoredRecord, error) {
	n.calls++
	if n.err != nil {
		return nil, n.err
	}
	out := make([]vecstore.ScoredRecord, 0, len(n.results))
	for _, sr := range n.results {
		if sr.Similarity > threshold {
			out = append(out, sr)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// seedStore inserts records at known similarities against the query
// vector {1,0,0}
func seedStore(t *testing.T, store vecstore.Store, sims map[int64]float64) {
	t.Helper()
	for id, sim := range sims {
		rest := float32(math.Sqrt(1 - sim*sim))
		require.NoError(t, store.Upsert(context.Background(), vecstore.Record{
			ID:      fmt.Sprintf("changelog_%d", id),
			Content: fmt.Sprintf("Version 1.0.%d\n\nRelease notes", id),
			Vector:  []float32{float32(sim), rest, 0},
			Meta: vecstore.RecordMeta{
				ChangelogID: id,
				Version:     fmt.Sprintf("1.0.%d", id),
				CreatedAt:   time.Date(2024, 3, int(id), 0, 0, 0, 0, time.UTC),
			},
		}))
	}
}

func TestSearchFiltersAndOrders(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedStore(t, store, map[int64]float64{1: 0.9, 2: 0.15, 3: 0.05})

	s := NewSearcher(store, &stubEmbedder{vector: []float32{1, 0, 0}})

	resp, err := s.Search(context.Background(), SearchRequest{Query: "breaking changes", Limit: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.InDelta(t, 0.9, resp.Results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.15, resp.Results[1].Similarity, 1e-6)
	assert.Equal(t, int64(1), resp.Results[0].ChangelogID)
	assert.Equal(t, "changelog_1", resp.Results[0].ID)
	assert.Equal(t, "1.0.1", resp.Results[0].Version)
	assert.False(t, resp.NativeRanked)
}

func TestSearchDefaultLimit(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedStore(t, store, map[int64]float64{1: 0.9, 2: 0.8, 3: 0.7, 4: 0.6, 5: 0.5})

	s := NewSearcher(store, &stubEmbedder{vector: []float32{1, 0, 0}})

	resp, err := s.Search(context.Background(), SearchRequest{Query: "auth"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, DefaultLimit)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	s := NewSearcher(vecstore.NewMemoryStore(3), &stubEmbedder{vector: []float32{1, 0, 0}})

	_, err := s.Search(context.Background(), SearchRequest{Query: "   "})
	assert.Error(t, err)
}

func TestSearchEmbeddingFailureReturnsEmpty(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedStore(t, store, map[int64]float64{1: 0.9})

	s := NewSearcher(store, &stubEmbedder{err: errors.New("provider down")})

	resp, err := s.Search(context.Background(), SearchRequest{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchEmptyStore(t *testing.T) {
	s := NewSearcher(vecstore.NewMemoryStore(3), &stubEmbedder{vector: []float32{1, 0, 0}})

	resp, err := s.Search(context.Background(), SearchRequest{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchPerRequestThreshold(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedStore(t, store, map[int64]float64{1: 0.9, 2: 0.15})

	s := NewSearcher(store, &stubEmbedder{vector: []float32{1, 0, 0}})

	high := 0.5
	resp, err := s.Search(context.Background(), SearchRequest{Query: "q", Limit: 5, Threshold: &high})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 0.9, resp.Results[0].Similarity, 1e-6)
}

func TestSearchUsesNativeRanker(t *testing.T) {
	mem := vecstore.NewMemoryStore(3)
	store := &nativeStore{
		MemoryStore: mem,
		results: []vecstore.ScoredRecord{
			{Record: vecstore.Record{ID: "changelog_1", Meta: vecstore.RecordMeta{ChangelogID: 1}}, Similarity: 0.8},
		},
	}

	s := NewSearcher(store, &stubEmbedder{vector: []float32{1, 0, 0}})

	resp, err := s.Search(context.Background(), SearchRequest{Query: "q", Limit: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.NativeRanked)
	assert.Equal(t, 1, store.calls)
}

func TestSearchFallsBackWhenNativeFails(t *testing.T) {
	mem := vecstore.NewMemoryStore(3)
	seedStore(t, mem, map[int64]float64{1: 0.9})
	store := &nativeStore{MemoryStore: mem, err: errors.New("connection refused")}

	s := NewSearcher(store, &stubEmbedder{vector: []float32{1, 0, 0}})

	resp, err := s.Search(context.Background(), SearchRequest{Query: "q", Limit: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.NativeRanked)
	assert.Equal(t, 1, store.calls)
}

func TestSearchCache(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedStore(t, store, map[int64]float64{1: 0.9})
	emb := &stubEmbedder{vector: []float32{1, 0, 0}}

	s := NewSearcher(store, emb)

	first, err := s.Search(context.Background(), SearchRequest{Query: "q", Limit: 5, UseCache: true})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := s.Search(context.Background(), SearchRequest{Query: "q", Limit: 5, UseCache: true})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, 1, emb.calls, "cache hit must not re-embed")

	// Different limit is a different cache key
	third, err := s.Search(context.Background(), SearchRequest{Query: "q", Limit: 1, UseCache: true})
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestSearchCacheExpiry(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedStore(t, store, map[int64]float64{1: 0.9})
	emb := &stubEmbedder{vector: []float32{1, 0, 0}}

	s := NewSearcher(store, emb)

	req := SearchRequest{Query: "q", Limit: 5, UseCache: true, CacheTTL: time.Nanosecond}
	_, err := s.Search(context.Background(), req)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	resp, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, 2, emb.calls)
}
