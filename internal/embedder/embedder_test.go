package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	cache := NewCache(2)

	emb := &Embedding{Vector: []float32{1, 2, 3}, Dimension: 3, TokenCount: 7}
	cache.Set("a", emb)

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, emb.Vector, got.Vector)
	assert.Equal(t, 7, got.TokenCount)

	// Mutating the copy must not touch the cached value
	got.Vector[0] = 99
	again, _ := cache.Get("a")
	assert.Equal(t, float32(1), again.Vector[0])

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(2)
	cache.Set("a", &Embedding{})
	cache.Set("b", &Embedding{})
	cache.Set("c", &Embedding{})

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("a")
	assert.False(t, ok)

	cache.Clear()
	assert.Zero(t, cache.Size())
}

func TestNewCache_DefaultSize(t *testing.T) {
	cache := NewCache(0)
	require.NotNil(t, cache)
	cache.Set("a", &Embedding{})
	assert.Equal(t, 1, cache.Size())
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, ComputeHash("m", "text"), ComputeHash("m", "text"))
	assert.NotEqual(t, ComputeHash("m", "text"), ComputeHash("m", "other"))
	assert.NotEqual(t, ComputeHash("m1", "text"), ComputeHash("m2", "text"))
	assert.Len(t, ComputeHash("m", "text"), 64)
}

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateRequest(EmbeddingRequest{}), ErrEmptyText)
	assert.NoError(t, ValidateRequest(EmbeddingRequest{Text: "x"}))
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}
