package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docsync/pkg/types"
)

func fastRetry(n int) *RetryConfig {
	return &RetryConfig{
		MaxRetries: n,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2,
	}
}

func embeddingHandler(t *testing.T, calls *atomic.Int32, vector []float32, tokens int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body.Model)
		assert.NotEmpty(t, body.Input)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": body.Model,
			"data": []map[string]any{
				{"index": 0, "embedding": vector},
			},
			"usage": map[string]any{"prompt_tokens": tokens, "total_tokens": tokens},
		})
	}
}

func TestHTTPProvider_GenerateEmbedding(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(embeddingHandler(t, &calls, []float32{0.1, 0.2, 0.3}, 12))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1/",
	})
	require.NoError(t, err)
	defer provider.Close()

	emb, err := provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello world"})
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb.Vector)
	assert.Equal(t, 3, emb.Dimension)
	assert.Equal(t, 12, emb.TokenCount)
	assert.Equal(t, ProviderOpenAI, emb.Provider)
	assert.Equal(t, DefaultOpenAIModel, emb.Model)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPProvider_Metadata(t *testing.T) {
	openai, err := NewOpenAIProvider(HTTPOptions{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, openai.Provider())
	assert.Equal(t, DefaultOpenAIModel, openai.Model())
	assert.Equal(t, OpenAIDimension, openai.Dimension())

	jina, err := NewJinaProvider(HTTPOptions{APIKey: "k", Model: "jina-embeddings-v2-base-en"})
	require.NoError(t, err)
	assert.Equal(t, ProviderJina, jina.Provider())
	assert.Equal(t, "jina-embeddings-v2-base-en", jina.Model())
	assert.Equal(t, JinaDimension, jina.Dimension())
}

func TestHTTPProvider_MissingAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(HTTPOptions{})
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = NewJinaProvider(HTTPOptions{})
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestHTTPProvider_EmptyText(t *testing.T) {
	provider, err := NewOpenAIProvider(HTTPOptions{APIKey: "k"})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestHTTPProvider_Cache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(embeddingHandler(t, &calls, []float32{1, 0}, 3))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Cache:   NewCache(10),
	})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "same"})
	require.NoError(t, err)
	second, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "same"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, 3, second.TokenCount)
}

func TestHTTPProvider_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid model"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Retry:   fastRetry(3),
	})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "x"})
	require.Error(t, err)

	var serr *types.EmbeddingServiceError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, ProviderOpenAI, serr.Provider)
	assert.Contains(t, serr.Error(), "invalid model")
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestHTTPProvider_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	ok := embeddingHandler(t, &calls, []float32{1}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Load() {
		case 0:
			calls.Add(1)
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case 1:
			calls.Add(1)
			http.Error(w, "oops", http.StatusBadGateway)
		default:
			ok(w, r)
		}
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Retry:   fastRetry(3),
	})
	require.NoError(t, err)

	emb, err := provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, emb.Vector)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPProvider_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Retry:   fastRetry(2),
	})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "x"})
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPProvider_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"usage":{"total_tokens":0}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{APIKey: "k", BaseURL: server.URL, Retry: fastRetry(2)})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.False(t, types.IsRetryable(err))
}

func TestHTTPProvider_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(HTTPOptions{APIKey: "k", BaseURL: server.URL, Retry: fastRetry(5)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalProvider(t *testing.T) {
	provider := NewLocalProvider(NewCache(10))
	ctx := context.Background()

	a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "the quick brown fox"})
	require.NoError(t, err)
	b, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "the quick brown fox"})
	require.NoError(t, err)
	c, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "something else"})
	require.NoError(t, err)

	assert.Len(t, a.Vector, LocalDimension)
	assert.Equal(t, a.Vector, b.Vector)
	assert.NotEqual(t, a.Vector, c.Vector)
	assert.Equal(t, 4, a.TokenCount)

	var norm float64
	for _, v := range a.Vector {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)

	assert.Equal(t, ProviderLocal, provider.Provider())
	assert.Equal(t, DefaultLocalModel, provider.Model())
	assert.Equal(t, LocalDimension, provider.Dimension())
	assert.NoError(t, provider.Close())
}

func TestLocalProvider_EmptyText(t *testing.T) {
	_, err := NewLocalProvider(nil).GenerateEmbedding(context.Background(), EmbeddingRequest{})
	assert.ErrorIs(t, err, ErrEmptyText)
}
