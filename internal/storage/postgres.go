package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dshills/docsync/pkg/types"
)

// postgresMigrations is the PostgreSQL schema history. Embeddings use the
// pgvector extension without a fixed dimension so any model fits.
var postgresMigrations = []Migration{
	{
		Version: "1.0.0",
		Up: `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS page (
    id BIGSERIAL PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    checksum TEXT,
    source TEXT,
    type TEXT,
    meta JSONB,
    parent_page_id BIGINT REFERENCES page(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_page_parent ON page(parent_page_id);

CREATE TABLE IF NOT EXISTS page_section (
    id BIGSERIAL PRIMARY KEY,
    page_id BIGINT NOT NULL REFERENCES page(id) ON DELETE CASCADE,
    slug TEXT,
    heading TEXT,
    content TEXT NOT NULL,
    token_count INTEGER NOT NULL DEFAULT 0,
    embedding VECTOR,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_page_section_page ON page_section(page_id);
`,
		Down: `
DROP TABLE IF EXISTS page_section;
DROP TABLE IF EXISTS page;
`,
	},
}

// PostgresStorage implements the Storage interface on PostgreSQL with pgvector
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to url. When the URL carries no password, key
// is used as the password.
func NewPostgresStorage(ctx context.Context, url, key string) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse datastore url: %w", err)
	}
	if cfg.ConnConfig.Password == "" && key != "" {
		cfg.ConnConfig.Password = key
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to datastore: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach datastore: %w", err)
	}

	s := &PostgresStorage{pool: pool}
	if err := applyMigrations(ctx, s, postgresMigrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return s, nil
}

// Close closes the connection pool
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStorage) schemaVersion(ctx context.Context) (string, error) {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
		    version TEXT PRIMARY KEY,
		    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return "", err
	}

	var version string
	err = s.pool.QueryRow(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return version, err
}

func (s *PostgresStorage) applyMigration(ctx context.Context, m Migration) error {
	if _, err := s.pool.Exec(ctx, m.Up); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", m.Version)
	return err
}

// Page operations

func (s *PostgresStorage) GetPageByPath(ctx context.Context, path string) (*types.Page, error) {
	query := `
		SELECT p.id, p.path, p.checksum, p.source, p.type, p.meta::text,
		       p.parent_page_id, parent.path, p.created_at, p.updated_at
		FROM page p
		LEFT JOIN page parent ON parent.id = p.parent_page_id
		WHERE p.path = $1
		LIMIT 1
	`
	var (
		page                                  types.Page
		checksum, source, pageType, meta, ppa *string
		parentID                              *int64
	)
	err := s.pool.QueryRow(ctx, query, path).Scan(
		&page.ID, &page.Path, &checksum, &source, &pageType, &meta,
		&parentID, &ppa, &page.CreatedAt, &page.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	page.Checksum = types.PendingChecksum()
	if checksum != nil {
		page.Checksum = types.SyncedChecksum(*checksum)
	}
	if source != nil {
		page.Source = *source
	}
	if pageType != nil {
		page.Type = *pageType
	}
	if meta != nil {
		page.Metadata, err = decodeMetadata(*meta)
		if err != nil {
			return nil, err
		}
	}
	if parentID != nil {
		page.ParentPageID = parentID
		if ppa != nil {
			page.ParentPath = *ppa
		}
	}
	return &page, nil
}

func (s *PostgresStorage) UpsertPage(ctx context.Context, page *types.Page) error {
	meta, err := encodeMetadata(page.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO page (path, checksum, source, type, meta, parent_page_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		ON CONFLICT (path) DO UPDATE SET
			checksum = EXCLUDED.checksum,
			source = EXCLUDED.source,
			type = EXCLUDED.type,
			meta = EXCLUDED.meta,
			parent_page_id = EXCLUDED.parent_page_id,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err = s.pool.QueryRow(ctx, query,
		page.Path, checksumArg(page.Checksum), page.Source, page.Type, meta, page.ParentPageID,
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdatePageParent(ctx context.Context, pageID int64, parentPageID *int64) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE page SET parent_page_id = $1, updated_at = now() WHERE id = $2",
		parentPageID, pageID)
	if err != nil {
		return fmt.Errorf("failed to update page parent: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdatePageChecksum(ctx context.Context, pageID int64, checksum string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE page SET checksum = $1, updated_at = now() WHERE id = $2",
		checksum, pageID)
	if err != nil {
		return fmt.Errorf("failed to update page checksum: %w", err)
	}
	return nil
}

// Section operations

func (s *PostgresStorage) DeletePageSections(ctx context.Context, pageID int64) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM page_section WHERE page_id = $1", pageID)
	if err != nil {
		return fmt.Errorf("failed to delete page sections: %w", err)
	}
	return nil
}

func (s *PostgresStorage) InsertPageSection(ctx context.Context, section *types.PageSection) error {
	var embedding *string
	if len(section.Embedding) > 0 {
		v := formatVector(section.Embedding)
		embedding = &v
	}

	query := `
		INSERT INTO page_section (page_id, slug, heading, content, token_count, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		section.PageID, section.Slug, section.Heading, section.Content,
		section.TokenCount, embedding,
	).Scan(&section.ID, &section.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert page section: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListPageSections(ctx context.Context, pageID int64) ([]*types.PageSection, error) {
	query := `
		SELECT id, page_id, slug, heading, content, token_count, embedding::text, created_at
		FROM page_section
		WHERE page_id = $1
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page sections: %w", err)
	}
	defer rows.Close()

	var sections []*types.PageSection
	for rows.Next() {
		var (
			section   types.PageSection
			embedding *string
			createdAt time.Time
		)
		if err := rows.Scan(&section.ID, &section.PageID, &section.Slug, &section.Heading,
			&section.Content, &section.TokenCount, &embedding, &createdAt); err != nil {
			return nil, err
		}
		if embedding != nil {
			section.Embedding, err = parseVector(*embedding)
			if err != nil {
				return nil, err
			}
		}
		section.CreatedAt = createdAt
		sections = append(sections, &section)
	}
	return sections, rows.Err()
}

// Status operations

func (s *PostgresStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{Backend: "postgres"}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(checksum), (SELECT COUNT(*) FROM page_section)
		FROM page
	`).Scan(&status.Pages, &status.SyncedPages, &status.Sections)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	status.PendingPages = status.Pages - status.SyncedPages

	rows, err := s.pool.Query(ctx, "SELECT path FROM page WHERE checksum IS NULL ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to list pending pages: %w", err)
	}
	status.PendingPaths, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list pending pages: %w", err)
	}

	return status, nil
}
