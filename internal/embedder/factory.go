package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
// 1. LOGVEC_EMBEDDING_PROVIDER (openai, huggingface, local)
// 2. Check for credentials: OPENAI_API_KEY, HF_API_TOKEN
// 3. Default to local if no credentials found
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)
	hfToken := os.Getenv(EnvHuggingFaceToken)

	cache := NewCache(10000) // Default cache size

	// Explicit provider selection
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOpenAI:
			return NewOpenAIProvider(openaiKey, cache)
		case ProviderHuggingFace:
			return NewHuggingFaceProvider(hfToken, cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	// Auto-detect based on available credentials
	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, cache)
	}
	if hfToken != "" {
		return NewHuggingFaceProvider(hfToken, cache)
	}

	// Fallback to local provider
	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderHuggingFace:
		return NewHuggingFaceProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// ProviderInfo returns the embedding dimension and default model for a
// provider name without constructing it. Stores can be sized and lazy
// wrappers described before the provider ever makes a network call.
func ProviderInfo(provider string) (dimension int, model string, err error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return OpenAIDimension, DefaultOpenAIModel, nil
	case ProviderHuggingFace:
		return HuggingFaceDimension, DefaultHuggingFaceModel, nil
	case ProviderLocal:
		return LocalDimension, "local-deterministic", nil
	}
	return 0, "", fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvHuggingFaceToken) != "" {
		return ProviderHuggingFace
	}

	return ProviderLocal
}
