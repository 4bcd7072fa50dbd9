package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/docsync/pkg/types"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-embeddings"

	// Default endpoints
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	// Bytes of an error response kept in the error message
	maxErrorBody = 512
)

// HTTPProvider calls an OpenAI-compatible /embeddings endpoint.
// OpenAI and Jina share the request and response format.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
}

// HTTPOptions configures an HTTPProvider. Zero values select the provider defaults.
type HTTPOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Retry   *RetryConfig
	Cache   *Cache
}

// NewOpenAIProvider creates an embedder backed by the OpenAI API
func NewOpenAIProvider(opts HTTPOptions) (*HTTPProvider, error) {
	return newHTTPProvider(ProviderOpenAI, DefaultOpenAIBaseURL, DefaultOpenAIModel, OpenAIDimension, opts)
}

// NewJinaProvider creates an embedder backed by the Jina AI API
func NewJinaProvider(opts HTTPOptions) (*HTTPProvider, error) {
	return newHTTPProvider(ProviderJina, DefaultJinaBaseURL, DefaultJinaModel, JinaDimension, opts)
}

func newHTTPProvider(name, baseURL, model string, dimension int, opts HTTPOptions) (*HTTPProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key not set", ErrNoProviderEnabled, name)
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	if opts.Model != "" {
		model = opts.Model
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}

	return &HTTPProvider{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: timeout},
		cache:      opts.Cache,
		retry:      retry,
	}, nil
}

func (p *HTTPProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	hash := ComputeHash(model, req.Text)
	if p.cache != nil {
		if emb, ok := p.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb, err := retryWithBackoff(ctx, p.retry, func() (*Embedding, error) {
		return p.callAPI(ctx, req.Text, model)
	})
	if err != nil {
		return nil, err
	}

	emb.Hash = hash
	if p.cache != nil {
		p.cache.Set(hash, emb)
	}
	return emb, nil
}

// embeddingResponse is the OpenAI-compatible response body
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *HTTPProvider) callAPI(ctx context.Context, text, model string) (*Embedding, error) {
	body, err := json.Marshal(map[string]any{
		"input": text,
		"model": model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &types.EmbeddingServiceError{Provider: p.name, Err: fmt.Errorf("api call: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &types.EmbeddingServiceError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(bodyBytes))),
		}
	}

	var apiResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &types.EmbeddingServiceError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	if len(apiResp.Data) == 0 || len(apiResp.Data[0].Embedding) == 0 {
		return nil, &types.EmbeddingServiceError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: no embeddings returned", ErrProviderFailed),
		}
	}

	vector := apiResp.Data[0].Embedding
	if apiResp.Model != "" {
		model = apiResp.Model
	}
	return &Embedding{
		Vector:     vector,
		Dimension:  len(vector),
		TokenCount: apiResp.Usage.TotalTokens,
		Provider:   p.name,
		Model:      model,
	}, nil
}

func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

func (p *HTTPProvider) Provider() string {
	return p.name
}

func (p *HTTPProvider) Model() string {
	return p.model
}

func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider produces deterministic pseudo-embeddings without a network
// call. Useful for development and tests; vectors carry no semantics.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{
		model: DefaultLocalModel,
		cache: cache,
	}
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(l.model, req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	// Expand the text hash into a full vector by hashing a counter
	vector := make([]float32, LocalDimension)
	seed := sha256.Sum256([]byte(req.Text))
	var block [sha256.Size]byte
	for i := range vector {
		if i%8 == 0 {
			var counter [4]byte
			binary.BigEndian.PutUint32(counter[:], uint32(i/8))
			block = sha256.Sum256(append(seed[:], counter[:]...))
		}
		word := binary.BigEndian.Uint32(block[(i%8)*4:])
		vector[i] = float32(word)/float32(math.MaxUint32)*2 - 1
	}

	emb := &Embedding{
		Vector:     NormalizeVector(vector),
		Dimension:  LocalDimension,
		TokenCount: len(strings.Fields(req.Text)),
		Provider:   ProviderLocal,
		Model:      l.model,
		Hash:       hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

// NormalizeVector normalizes a vector to unit length (for cosine similarity)
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}

	return result
}
