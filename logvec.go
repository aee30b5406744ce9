// Package logvec is a semantic retrieval engine for changelog entries. It
// embeds changelog text into vectors, persists them in a pluggable store,
// and ranks them by cosine similarity against free-text queries so that
// release-notes tooling can pull in relevant history as context.
package logvec

import (
	"context"
	"fmt"
	"os"

	"github.com/relnote/logvec/internal/config"
	"github.com/relnote/logvec/internal/embedder"
	"github.com/relnote/logvec/internal/indexer"
	"github.com/relnote/logvec/internal/searcher"
	"github.com/relnote/logvec/internal/source"
	"github.com/relnote/logvec/internal/vecstore"
	"github.com/relnote/logvec/pkg/types"
)

// Engine wires the embedding provider, vector store, searcher, and indexer
// into one retrieval engine
type Engine struct {
	cfg      *config.Config
	emb      embedder.Embedder
	store    vecstore.Store
	searcher *searcher.Searcher
	indexer  *indexer.Indexer
}

// Open builds an Engine from configuration. The embedding provider is
// selected from config when set, otherwise from the environment; the store
// dimension is pinned to the provider's dimension.
func Open(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	store, err := newStore(cfg, emb.Dimension())
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("vector store: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		emb:      emb,
		store:    store,
		searcher: searcher.NewSearcher(store, emb, searcher.WithThreshold(cfg.Search.Threshold)),
		indexer: indexer.New(store, emb, &indexer.Config{
			BatchSize:  cfg.Indexing.BatchSize,
			BatchDelay: cfg.Indexing.BatchDelay.Std(),
		}),
	}, nil
}

// newEmbedder wraps the configured provider in a lazy initializer, so
// opening the engine for store-only operations never pays a provider
// cold start or credential check.
func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	provider := cfg.Embedding.Provider
	if provider == "" {
		provider = embedder.DetectProvider()
	}
	dimension, model, err := embedder.ProviderInfo(provider)
	if err != nil {
		return nil, err
	}

	cacheSize := cfg.Embedding.CacheSize
	return embedder.NewLazy(dimension, provider, model, func() (embedder.Embedder, error) {
		return embedder.New(embedder.Config{
			Provider:  provider,
			APIKey:    apiKeyFor(provider),
			CacheSize: cacheSize,
		})
	}), nil
}

func apiKeyFor(provider string) string {
	switch provider {
	case embedder.ProviderOpenAI:
		return os.Getenv(embedder.EnvOpenAIAPIKey)
	case embedder.ProviderHuggingFace:
		return os.Getenv(embedder.EnvHuggingFaceToken)
	}
	return ""
}

func newStore(cfg *config.Config, dimension int) (vecstore.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return vecstore.NewMemoryStore(dimension), nil
	case "sqlite":
		return vecstore.NewSQLiteStore(cfg.Store.Path, dimension)
	case "bolt":
		return vecstore.NewBoltStore(cfg.Store.Path, dimension)
	case "postgres":
		return vecstore.NewPostgresStore(cfg.Store.DSN, dimension)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Search ranks stored changelog entries against a free-text query. A limit
// of zero applies the configured default.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	if limit <= 0 {
		limit = e.cfg.Search.Limit
	}
	resp, err := e.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Limit:    limit,
		UseCache: true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchForContext searches and then narrows the results to the set a
// consumer should auto-select as generation context
func (e *Engine) SearchForContext(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	results, err := e.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return types.AutoSelect(results, e.cfg.Search.AutoSelectBand), nil
}

// IndexEntry embeds and stores a single changelog entry
func (e *Engine) IndexEntry(ctx context.Context, entry types.ChangelogEntry) error {
	return e.indexer.IndexEntry(ctx, entry)
}

// RemoveEntry deletes the record for a changelog entry
func (e *Engine) RemoveEntry(ctx context.Context, changelogID int64) error {
	return e.indexer.RemoveEntry(ctx, changelogID)
}

// IndexAll rebuilds the whole index from a changelog source
func (e *Engine) IndexAll(ctx context.Context, src source.Source, progress indexer.ProgressFunc) (*indexer.Statistics, error) {
	entries, err := src.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list changelog entries: %w", err)
	}
	return e.indexer.IndexAll(ctx, entries, progress)
}

// Sync consumes a source's change feed until the context is cancelled
func (e *Engine) Sync(ctx context.Context, src source.Watcher) error {
	feed, err := src.Changes(ctx)
	if err != nil {
		return err
	}
	return e.indexer.Run(ctx, feed)
}

// Count reports how many records the index holds
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.indexer.Count(ctx)
}

// Status describes the running engine for diagnostics
type Status struct {
	Provider     string
	Model        string
	Dimension    int
	StoreBackend string
	Records      int
}

// Status reports provider, store, and record-count diagnostics
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	count, err := e.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Provider:     e.emb.Provider(),
		Model:        e.emb.Model(),
		Dimension:    e.emb.Dimension(),
		StoreBackend: e.cfg.Store.Backend,
		Records:      count,
	}, nil
}

// Close releases the store and embedding provider
func (e *Engine) Close() error {
	storeErr := e.store.Close()
	embErr := e.emb.Close()
	if storeErr != nil {
		return storeErr
	}
	return embErr
}
