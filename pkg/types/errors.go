package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ParseError reports a document whose front-matter or structure cannot be parsed
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StoreError reports a failed datastore operation
type StoreError struct {
	Op   string // e.g. "fetch page", "insert section"
	Path string // Route path of the page being synced
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// EmbeddingServiceError reports a non-success response or transport failure
// from the embedding service
type EmbeddingServiceError struct {
	Provider   string
	StatusCode int // Zero for transport failures
	Err        error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service %s returned %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("embedding service %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request may succeed
func (e *EmbeddingServiceError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// ConfigurationError lists required settings that are missing
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// IsRetryable reports whether err is an embedding failure worth retrying
func IsRetryable(err error) bool {
	var eerr *EmbeddingServiceError
	if errors.As(err, &eerr) {
		return eerr.Retryable()
	}
	return false
}
