package embedder

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/docsync/internal/config"
)

// Config holds embedder configuration
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	CacheSize  int // Zero disables caching
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	opts := HTTPOptions{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Retry:   &retry,
		Cache:   cache,
	}

	var (
		provider *HTTPProvider
		err      error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		provider, err = NewOpenAIProvider(opts)
	case ProviderJina:
		provider, err = NewJinaProvider(opts)
	case ProviderLocal:
		return NewLocalProvider(cache), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// NewFromConfig builds the embedder described by the embedding section of cfg
func NewFromConfig(cfg config.EmbeddingConfig) (Embedder, error) {
	return New(Config{
		Provider:   cfg.Provider,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		CacheSize:  cfg.CacheSize,
	})
}
