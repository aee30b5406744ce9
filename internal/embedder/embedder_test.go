package embedder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"valid text", "Version 1.2.0\n\nFixed pagination", nil},
		{"empty text", "", ErrEmptyText},
		{"whitespace only", "   \n\t  ", ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(EmbeddingRequest{Text: tt.text})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBatchRequest(t *testing.T) {
	t.Run("valid batch", func(t *testing.T) {
		err := ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"a", "b"}})
		assert.NoError(t, err)
	})

	t.Run("empty batch", func(t *testing.T) {
		err := ValidateBatchRequest(BatchEmbeddingRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("blank entry in batch", func(t *testing.T) {
		err := ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"ok", "  "}})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestValidateVector(t *testing.T) {
	good := []float32{0.1, -0.2, 0.3}
	assert.NoError(t, validateVector(good, 3))

	t.Run("wrong dimension", func(t *testing.T) {
		err := validateVector(good, 4)
		assert.ErrorIs(t, err, ErrProviderFailed)
	})

	t.Run("NaN component", func(t *testing.T) {
		err := validateVector([]float32{0.1, float32(math.NaN()), 0.3}, 3)
		assert.ErrorIs(t, err, ErrProviderFailed)
	})

	t.Run("infinite component", func(t *testing.T) {
		err := validateVector([]float32{float32(math.Inf(1)), 0, 0}, 3)
		assert.ErrorIs(t, err, ErrProviderFailed)
	})
}

func TestCache(t *testing.T) {
	cache := NewCache(2)

	emb := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  ProviderLocal,
		Model:     "local-deterministic",
		Hash:      ComputeHash("hello"),
	}
	cache.Set(emb.Hash, emb)

	got, ok := cache.Get(emb.Hash)
	require.True(t, ok)
	assert.Equal(t, emb.Vector, got.Vector)

	// Mutating the returned copy must not affect the cached value
	got.Vector[0] = 99
	again, ok := cache.Get(emb.Hash)
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])

	// LRU eviction at capacity
	cache.Set(ComputeHash("b"), emb)
	cache.Set(ComputeHash("c"), emb)
	assert.Equal(t, 2, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("same text")
	h2 := ComputeHash("same text")
	h3 := ComputeHash("different text")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // hex-encoded SHA-256
}
