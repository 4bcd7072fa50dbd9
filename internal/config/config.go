package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/docsync/pkg/types"
)

// Defaults
const (
	DefaultDocsDir        = "src/app/docs/newsletters"
	DefaultSource         = "newsletter"
	DefaultProvider       = "openai"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultLogLevel       = "info"
	DefaultLogMaxSizeMB   = 10
	DefaultLogMaxFiles    = 5
	DefaultConfigFileName = "docsync.yaml"
	DefaultEnvFileName    = ".env"
)

// Environment variables
const (
	EnvDocsDir           = "DOCSYNC_DOCS_DIR"
	EnvSource            = "DOCSYNC_SOURCE"
	EnvDatastoreURL      = "DOCSYNC_DATASTORE_URL"
	EnvDatastoreKey      = "DOCSYNC_DATASTORE_KEY"
	EnvEmbeddingProvider = "DOCSYNC_EMBEDDING_PROVIDER"
	EnvEmbeddingAPIKey   = "DOCSYNC_EMBEDDING_API_KEY"
	EnvEmbeddingModel    = "DOCSYNC_EMBEDDING_MODEL"
	EnvEmbeddingBaseURL  = "DOCSYNC_EMBEDDING_BASE_URL"
	EnvEmbeddingTimeout  = "DOCSYNC_EMBEDDING_TIMEOUT"
	EnvMaxRetries        = "DOCSYNC_EMBEDDING_MAX_RETRIES"
	EnvLogLevel          = "DOCSYNC_LOG_LEVEL"
	EnvLogFile           = "DOCSYNC_LOG_FILE"

	// Names used by the original site tooling
	EnvLegacyDatastoreURL = "NEXT_PUBLIC_SUPABASE_URL"
	EnvLegacyDatastoreKey = "SUPABASE_SERVICE_ROLE_KEY"
	EnvLegacyOpenAIKey    = "OPENAI_KEY"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
)

// Config is the complete docsync configuration
type Config struct {
	DocsDir   string          `yaml:"docs_dir"`
	Source    string          `yaml:"source"`
	Ignore    []string        `yaml:"ignore"`
	Datastore DatastoreConfig `yaml:"datastore"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatastoreConfig locates the page store
type DatastoreConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// EmbeddingConfig configures the embedding service client
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // openai, jina or local
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"` // Empty selects the provider default
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	CacheSize  int           `yaml:"cache_size"` // Zero disables the cache
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"` // Empty logs to stderr only
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// NewConfig returns a configuration populated with defaults
func NewConfig() *Config {
	return &Config{
		DocsDir: DefaultDocsDir,
		Source:  DefaultSource,
		Embedding: EmbeddingConfig{
			Provider:   DefaultProvider,
			Timeout:    DefaultTimeout,
			MaxRetries: DefaultMaxRetries,
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			MaxSizeMB: DefaultLogMaxSizeMB,
			MaxFiles:  DefaultLogMaxFiles,
		},
	}
}

// Load resolves configuration from path (or docsync.yaml when path is
// empty), the .env file and the environment. An explicitly named file
// must exist.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFileName
	}
	if err := cfg.loadYAML(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := godotenv.Load(DefaultEnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFileName, err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML merges values from a YAML file over the current configuration
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variables, which take precedence over the file
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvDocsDir); v != "" {
		c.DocsDir = v
	}
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = v
	}

	if v := firstEnv(EnvDatastoreURL, EnvLegacyDatastoreURL); v != "" {
		c.Datastore.URL = v
	}
	if v := firstEnv(EnvDatastoreKey, EnvLegacyDatastoreKey); v != "" {
		c.Datastore.Key = v
	}

	if v := os.Getenv(EnvEmbeddingProvider); v != "" {
		c.Embedding.Provider = strings.ToLower(v)
	}
	if v := firstEnv(EnvEmbeddingAPIKey, EnvLegacyOpenAIKey, EnvOpenAIAPIKey); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv(EnvEmbeddingBaseURL); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv(EnvEmbeddingTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvEmbeddingTimeout, v, err)
		}
		c.Embedding.Timeout = d
	}
	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s %q: must be a non-negative integer", EnvMaxRetries, v)
		}
		c.Embedding.MaxRetries = n
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the configuration. Missing credentials are reported as a
// *types.ConfigurationError; malformed values as a plain error.
func (c *Config) Validate() error {
	validProviders := map[string]bool{"openai": true, "jina": true, "local": true}
	if !validProviders[strings.ToLower(c.Embedding.Provider)] {
		return fmt.Errorf("embedding.provider must be 'openai', 'jina' or 'local', got %q", c.Embedding.Provider)
	}
	if c.Embedding.MaxRetries < 0 {
		return fmt.Errorf("embedding.max_retries must be non-negative, got %d", c.Embedding.MaxRetries)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("embedding.cache_size must be non-negative, got %d", c.Embedding.CacheSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn' or 'error', got %q", c.Logging.Level)
	}

	var missing []string
	if c.Datastore.URL == "" {
		missing = append(missing, EnvDatastoreURL)
	}
	if c.Datastore.Key == "" && !IsLocalDatastore(c.Datastore.URL) {
		missing = append(missing, EnvDatastoreKey)
	}
	if c.Embedding.APIKey == "" && strings.ToLower(c.Embedding.Provider) != "local" {
		missing = append(missing, EnvEmbeddingAPIKey)
	}
	if len(missing) > 0 {
		return &types.ConfigurationError{Missing: missing}
	}
	return nil
}

// IsLocalDatastore reports whether url names an embedded SQLite database,
// which needs no credential
func IsLocalDatastore(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	return !strings.HasPrefix(lower, "postgres://") &&
		!strings.HasPrefix(lower, "postgresql://") &&
		!strings.HasPrefix(lower, "http://") &&
		!strings.HasPrefix(lower, "https://")
}
