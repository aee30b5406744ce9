package embedder

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy defers construction of an Embedder until its first use. Remote
// providers can have a cold-start cost (model load, credential check), so
// callers that may never embed anything should not pay it up front.
//
// Initialization is single-flight: concurrent first callers share one
// construction attempt instead of racing duplicate loads. A failed attempt
// is not sticky; the next call retries.
type Lazy struct {
	construct func() (Embedder, error)

	group singleflight.Group
	mu    sync.RWMutex
	inner Embedder

	// Reported before the inner embedder exists, so callers can size
	// stores without forcing initialization
	dimension int
	provider  string
	model     string
}

// NewLazy wraps a constructor function. dimension, provider, and model
// describe the embedder that construct will produce.
func NewLazy(dimension int, provider, model string, construct func() (Embedder, error)) *Lazy {
	return &Lazy{
		construct: construct,
		dimension: dimension,
		provider:  provider,
		model:     model,
	}
}

// get returns the initialized inner embedder, constructing it on first use
func (l *Lazy) get() (Embedder, error) {
	l.mu.RLock()
	inner := l.inner
	l.mu.RUnlock()
	if inner != nil {
		return inner, nil
	}

	v, err, _ := l.group.Do("init", func() (interface{}, error) {
		// Another caller may have finished while we queued
		l.mu.RLock()
		existing := l.inner
		l.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		emb, err := l.construct()
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.inner = emb
		l.mu.Unlock()
		return emb, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Embedder), nil
}

func (l *Lazy) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	inner, err := l.get()
	if err != nil {
		return nil, err
	}
	return inner.GenerateEmbedding(ctx, req)
}

func (l *Lazy) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	inner, err := l.get()
	if err != nil {
		return nil, err
	}
	return inner.GenerateBatch(ctx, req)
}

func (l *Lazy) Dimension() int {
	return l.dimension
}

func (l *Lazy) Provider() string {
	return l.provider
}

func (l *Lazy) Model() string {
	return l.model
}

// Close releases the inner embedder if it was ever constructed
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		return nil
	}
	err := l.inner.Close()
	l.inner = nil
	return err
}
