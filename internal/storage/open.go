package storage

import (
	"context"
	"fmt"
	"strings"
)

// Open returns the Storage backend for url.
//
//	postgres://, postgresql://   PostgreSQL with pgvector (key is the password)
//	sqlite://path, file:, :memory:, plain path   SQLite
//
// HTTP(S) endpoints are rejected with ErrUnsupportedURL.
func Open(ctx context.Context, url, key string) (Storage, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("%w: empty url", ErrUnsupportedURL)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStorage(ctx, url, key)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return nil, fmt.Errorf("%w: %s (use a postgres:// connection string)", ErrUnsupportedURL, url)
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLiteStorage(ctx, strings.TrimPrefix(url, "sqlite://"))
	default:
		return NewSQLiteStorage(ctx, url)
	}
}
