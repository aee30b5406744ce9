package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvHuggingFaceToken, "")
}

func TestNewFromEnvDefaultsToLocal(t *testing.T) {
	clearProviderEnv(t)

	emb, err := NewFromEnv()
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, LocalDimension, emb.Dimension())
}

func TestNewFromEnvExplicitProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvProvider, "openai")
	t.Setenv(EnvOpenAIAPIKey, "test-key")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderOpenAI, emb.Provider())
	assert.Equal(t, OpenAIDimension, emb.Dimension())
}

func TestNewFromEnvAutoDetectsHuggingFace(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvHuggingFaceToken, "hf-test-token")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderHuggingFace, emb.Provider())
	assert.Equal(t, DefaultHuggingFaceModel, emb.Model())
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvProvider, "cohere")

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestNewWithExplicitConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantErr  bool
		provider string
	}{
		{"local", Config{Provider: "local"}, false, ProviderLocal},
		{"openai with key", Config{Provider: "openai", APIKey: "k", CacheSize: 100}, false, ProviderOpenAI},
		{"huggingface with token", Config{Provider: "HuggingFace", APIKey: "t"}, false, ProviderHuggingFace},
		{"unknown", Config{Provider: "bedrock"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Keep ambient credentials out of the explicit-config path
			clearProviderEnv(t)

			emb, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = emb.Close() }()
			assert.Equal(t, tt.provider, emb.Provider())
		})
	}
}

func TestDetectProvider(t *testing.T) {
	clearProviderEnv(t)
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "k")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvProvider, "LOCAL")
	assert.Equal(t, ProviderLocal, DetectProvider())
}

func TestProviderInfo(t *testing.T) {
	dim, model, err := ProviderInfo(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, OpenAIDimension, dim)
	assert.Equal(t, DefaultOpenAIModel, model)

	dim, model, err = ProviderInfo("HuggingFace")
	require.NoError(t, err)
	assert.Equal(t, HuggingFaceDimension, dim)
	assert.Equal(t, DefaultHuggingFaceModel, model)

	dim, _, err = ProviderInfo(ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, LocalDimension, dim)

	_, _, err = ProviderInfo("bedrock")
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}
