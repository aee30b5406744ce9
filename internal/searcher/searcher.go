package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/relnote/logvec/internal/embedder"
	"github.com/relnote/logvec/internal/vecstore"
	"github.com/relnote/logvec/pkg/types"
)

// SearchRequest contains parameters for a similarity search
type SearchRequest struct {
	Query     string
	Limit     int           // Defaults to DefaultLimit when <= 0
	Threshold *float64      // Strict lower bound; nil means the searcher default
	UseCache  bool          // Whether to consult the query cache
	CacheTTL  time.Duration // Cache entry lifetime; defaults to 1 minute
}

// SearchResponse contains ranked results and query metadata
type SearchResponse struct {
	Results  []types.SearchResult
	Duration time.Duration
	CacheHit bool
	// NativeRanked reports whether ranking was delegated to the store
	// backend rather than computed by the client-side scan
	NativeRanked bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher ranks stored vector records against free-text queries. It embeds
// the query, then either delegates ranking to the store backend (when the
// store implements vecstore.NativeRanker) or scans client-side. The two
// paths apply identical threshold/limit semantics; a native failure always
// falls back to the scan.
type Searcher struct {
	store     vecstore.Store
	embedder  embedder.Embedder
	threshold float64
	cache     *lru.Cache[[32]byte, *cacheEntry]
}

// Option customizes a Searcher
type Option func(*Searcher)

// WithThreshold overrides the default similarity threshold
func WithThreshold(threshold float64) Option {
	return func(s *Searcher) {
		s.threshold = threshold
	}
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store vecstore.Store, emb embedder.Embedder, opts ...Option) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with a valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	s := &Searcher{
		store:     store,
		embedder:  emb,
		threshold: DefaultThreshold,
		cache:     cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search performs a similarity search for the request query.
//
// A query-time embedding failure degrades to an empty result set rather
// than an error: a failed context lookup should lower generation quality,
// not block the caller's workflow. Store read failures are returned, since
// they indicate the index itself is unreachable.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	if req.UseCache {
		if cached, ok := s.checkCache(req); ok {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	queryEmb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		log.Printf("query embedding failed, returning no results: %v", err)
		return &SearchResponse{
			Results:  []types.SearchResult{},
			Duration: time.Since(startTime),
		}, nil
	}

	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	scored, native, err := s.rank(ctx, queryEmb.Vector, threshold, req.Limit)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Results:      toSearchResults(scored),
		Duration:     time.Since(startTime),
		NativeRanked: native,
	}

	if req.UseCache {
		s.storeInCache(req, response)
	}

	return response, nil
}

// rank applies the two-tier ranking strategy: prefer the store's native
// ranker, guarantee the client-side scan.
func (s *Searcher) rank(ctx context.Context, query []float32, threshold float64, limit int) ([]vecstore.ScoredRecord, bool, error) {
	if ranker, ok := s.store.(vecstore.NativeRanker); ok {
		scored, err := ranker.SearchNative(ctx, query, threshold, limit)
		if err == nil {
			return scored, true, nil
		}
		log.Printf("native ranking failed, falling back to client-side scan: %v", err)
	}

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("fetch records for ranking: %w", err)
	}
	return RankVectors(records, query, threshold, limit), false, nil
}

// checkCache looks up a non-expired cached response
func (s *Searcher) checkCache(req SearchRequest) (*SearchResponse, bool) {
	key := cacheKey(req)
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.cache.Remove(key)
		return nil, false
	}

	// Shallow copy so callers can set response metadata independently
	resp := *entry.response
	return &resp, true
}

func (s *Searcher) storeInCache(req SearchRequest, resp *SearchResponse) {
	ttl := req.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.cache.Add(cacheKey(req), &cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(ttl),
	})
}

func cacheKey(req SearchRequest) [32]byte {
	threshold := math.NaN()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	return sha256.Sum256(fmt.Appendf(nil, "%s|%d|%g", req.Query, req.Limit, threshold))
}

// toSearchResults converts store-level scored records to the caller contract
func toSearchResults(scored []vecstore.ScoredRecord) []types.SearchResult {
	results := make([]types.SearchResult, len(scored))
	for i, sr := range scored {
		results[i] = types.SearchResult{
			ID:          sr.Record.ID,
			ChangelogID: sr.Record.Meta.ChangelogID,
			Version:     sr.Record.Meta.Version,
			Product:     sr.Record.Meta.Product,
			CreatedAt:   sr.Record.Meta.CreatedAt,
			Content:     sr.Record.Content,
			Similarity:  sr.Similarity,
		}
	}
	return results
}
