package storage

import (
	"context"
	"errors"

	"github.com/dshills/docsync/pkg/types"
)

var (
	// ErrNotFound is returned when a requested page doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedURL is returned for datastore URLs no backend can open
	ErrUnsupportedURL = errors.New("unsupported datastore url")
)

// Storage persists pages and their embedded sections.
// Every method is a single statement; callers get no multi-statement
// transaction and must order writes so that a partial failure is detectable.
type Storage interface {
	// Page operations
	GetPageByPath(ctx context.Context, path string) (*types.Page, error)
	UpsertPage(ctx context.Context, page *types.Page) error
	UpdatePageParent(ctx context.Context, pageID int64, parentPageID *int64) error
	UpdatePageChecksum(ctx context.Context, pageID int64, checksum string) error

	// Section operations
	DeletePageSections(ctx context.Context, pageID int64) error
	InsertPageSection(ctx context.Context, section *types.PageSection) error
	ListPageSections(ctx context.Context, pageID int64) ([]*types.PageSection, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
}

// Status summarizes the contents of the store
type Status struct {
	Backend      string   `json:"backend"`
	Pages        int      `json:"pages"`
	SyncedPages  int      `json:"synced_pages"`
	PendingPages int      `json:"pending_pages"`
	Sections     int      `json:"sections"`
	PendingPaths []string `json:"pending_paths"`
	SizeMB       float64  `json:"size_mb,omitempty"`
}
