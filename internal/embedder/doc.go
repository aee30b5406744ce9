// Package embedder generates vector embeddings from changelog text.
//
// The package supports multiple embedding providers behind a common
// interface:
//   - OpenAI API (text-embedding-3-small, 1536 dimensions)
//   - Hugging Face hosted inference (Supabase/gte-small, 384 dimensions)
//   - Local deterministic embedder (384 dimensions, offline, dev/test only)
//
// # Provider Selection
//
// Providers are selected via environment variables:
//
//	LOGVEC_EMBEDDING_PROVIDER=openai|huggingface|local
//	OPENAI_API_KEY=sk-...
//	HF_API_TOKEN=hf_...
//
// When no provider is configured explicitly, the factory auto-detects based
// on available credentials and falls back to the local provider.
//
// # Output Guarantees
//
// Every embedding returned by this package has exactly the provider's
// declared dimension and contains only finite components. Malformed provider
// output (wrong dimension, NaN, Inf) is rejected with ErrProviderFailed
// instead of being passed downstream, where it would corrupt similarity
// rankings. Empty or whitespace-only input fails with ErrEmptyText; callers
// must not substitute a zero vector, since a zero vector has undefined
// cosine similarity.
//
// # Caching and Retry
//
// Embeddings are cached in-memory by SHA-256 content hash with LRU eviction.
// Remote API calls retry with exponential backoff and respect context
// cancellation.
//
// # Lazy Initialization
//
// Lazy wraps a provider constructor so the underlying client is built on
// first use. Concurrent first callers share a single construction attempt:
//
//	emb := embedder.NewLazy(embedder.OpenAIDimension, embedder.ProviderOpenAI,
//	    embedder.DefaultOpenAIModel, func() (embedder.Embedder, error) {
//	        return embedder.NewOpenAIProvider("", embedder.NewCache(10000))
//	    })
package embedder
