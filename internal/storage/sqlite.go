package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/docsync/pkg/types"
)

// sqliteMigrations is the SQLite schema history
var sqliteMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      sqliteMigrationV1Up,
		Down:    sqliteMigrationV1Down,
	},
}

const sqliteMigrationV1Up = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS page (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    checksum TEXT,
    source TEXT,
    type TEXT,
    meta TEXT,
    parent_page_id INTEGER REFERENCES page(id) ON DELETE SET NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_page_parent ON page(parent_page_id);

CREATE TABLE IF NOT EXISTS page_section (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER NOT NULL REFERENCES page(id) ON DELETE CASCADE,
    slug TEXT,
    heading TEXT,
    content TEXT NOT NULL,
    token_count INTEGER NOT NULL DEFAULT 0,
    embedding BLOB,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_page_section_page ON page_section(page_id);
`

const sqliteMigrationV1Down = `
DROP TABLE IF EXISTS page_section;
DROP TABLE IF EXISTS page;
DROP TABLE IF EXISTS schema_version;
`

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; it also keeps :memory: on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := applyMigrations(ctx, s, sqliteMigrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) schemaVersion(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var version string
	err = s.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY rowid DESC LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return version, err
}

func (s *SQLiteStorage) applyMigration(ctx context.Context, m Migration) error {
	if _, err := s.db.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.Version)
	return err
}

// RollbackMigration rolls back the most recent migration
func (s *SQLiteStorage) RollbackMigration(ctx context.Context) error {
	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if current == "" {
		return fmt.Errorf("no migrations to rollback")
	}

	for _, m := range sqliteMigrations {
		if m.Version != current {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.Down); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", current, err)
		}
		// The first migration drops schema_version itself
		_, _ = s.db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", current)
		return nil
	}

	return fmt.Errorf("migration %s not found", current)
}

// Page operations

func (s *SQLiteStorage) GetPageByPath(ctx context.Context, path string) (*types.Page, error) {
	query := `
		SELECT p.id, p.path, p.checksum, p.source, p.type, p.meta,
		       p.parent_page_id, parent.path, p.created_at, p.updated_at
		FROM page p
		LEFT JOIN page parent ON parent.id = p.parent_page_id
		WHERE p.path = ?
		LIMIT 1
	`
	var (
		page                 types.Page
		checksum, meta       sql.NullString
		source, pageType     sql.NullString
		parentID             sql.NullInt64
		parentPath           sql.NullString
		createdAt, updatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, path).Scan(
		&page.ID, &page.Path, &checksum, &source, &pageType, &meta,
		&parentID, &parentPath, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	page.Source = source.String
	page.Type = pageType.String
	page.Checksum = types.PendingChecksum()
	if checksum.Valid {
		page.Checksum = types.SyncedChecksum(checksum.String)
	}
	if meta.Valid {
		page.Metadata, err = decodeMetadata(meta.String)
		if err != nil {
			return nil, err
		}
	}
	if parentID.Valid {
		id := parentID.Int64
		page.ParentPageID = &id
		page.ParentPath = parentPath.String
	}
	page.CreatedAt = createdAt.Time
	page.UpdatedAt = updatedAt.Time
	return &page, nil
}

func (s *SQLiteStorage) UpsertPage(ctx context.Context, page *types.Page) error {
	meta, err := encodeMetadata(page.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO page (path, checksum, source, type, meta, parent_page_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum = excluded.checksum,
			source = excluded.source,
			type = excluded.type,
			meta = excluded.meta,
			parent_page_id = excluded.parent_page_id,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now().UTC()
	var id int64
	err = s.db.QueryRowContext(ctx, query,
		page.Path, checksumArg(page.Checksum), page.Source, page.Type, meta,
		nullableID(page.ParentPageID), now, now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}

	page.ID = id
	page.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdatePageParent(ctx context.Context, pageID int64, parentPageID *int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE page SET parent_page_id = ?, updated_at = ? WHERE id = ?",
		nullableID(parentPageID), time.Now().UTC(), pageID)
	if err != nil {
		return fmt.Errorf("failed to update page parent: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdatePageChecksum(ctx context.Context, pageID int64, checksum string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE page SET checksum = ?, updated_at = ? WHERE id = ?",
		checksum, time.Now().UTC(), pageID)
	if err != nil {
		return fmt.Errorf("failed to update page checksum: %w", err)
	}
	return nil
}

// Section operations

func (s *SQLiteStorage) DeletePageSections(ctx context.Context, pageID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM page_section WHERE page_id = ?", pageID)
	if err != nil {
		return fmt.Errorf("failed to delete page sections: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertPageSection(ctx context.Context, section *types.PageSection) error {
	query := `
		INSERT INTO page_section (page_id, slug, heading, content, token_count, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		section.PageID, section.Slug, section.Heading, section.Content,
		section.TokenCount, serializeVector(section.Embedding), now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert page section: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	section.ID = id
	section.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) ListPageSections(ctx context.Context, pageID int64) ([]*types.PageSection, error) {
	query := `
		SELECT id, page_id, slug, heading, content, token_count, embedding, created_at
		FROM page_section
		WHERE page_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page sections: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sections []*types.PageSection
	for rows.Next() {
		var (
			section       types.PageSection
			slug, heading sql.NullString
			blob          []byte
			createdAt     sql.NullTime
		)
		if err := rows.Scan(&section.ID, &section.PageID, &slug, &heading,
			&section.Content, &section.TokenCount, &blob, &createdAt); err != nil {
			return nil, err
		}
		if slug.Valid {
			section.Slug = types.StringPtr(slug.String)
		}
		if heading.Valid {
			section.Heading = types.StringPtr(heading.String)
		}
		section.Embedding = deserializeVector(blob)
		section.CreatedAt = createdAt.Time
		sections = append(sections, &section)
	}
	return sections, rows.Err()
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{Backend: "sqlite/" + BuildMode}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(checksum), (SELECT COUNT(*) FROM page_section)
		FROM page
	`).Scan(&status.Pages, &status.SyncedPages, &status.Sections)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	status.PendingPages = status.Pages - status.SyncedPages

	rows, err := s.db.QueryContext(ctx, "SELECT path FROM page WHERE checksum IS NULL ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to list pending pages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		status.PendingPaths = append(status.PendingPaths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return status, nil
}

// checksumArg maps a pending checksum to NULL
func checksumArg(c types.Checksum) any {
	if v, ok := c.Value(); ok {
		return v
	}
	return nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
