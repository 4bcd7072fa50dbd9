// Package storage persists documentation pages and their embedded sections.
//
// Two backends implement Storage:
//   - SQLiteStorage, for local files (modernc.org/sqlite by default,
//     mattn/go-sqlite3 with the sqlite_vec build tag)
//   - PostgresStorage, for a PostgreSQL database with the pgvector extension
//
// Open picks the backend from the datastore URL.
//
// # Schema
//
//   - page: one row per document, keyed by its unique route path. A NULL
//     checksum marks a page whose sections are incomplete.
//   - page_section: one row per section with its embedding. Rows are removed
//     with their page.
//
// Migrations are versioned with semantic versions and applied on open.
//
// # Consistency
//
// Each call is a single statement. A sync writes the page with a NULL
// checksum, then its sections, then the checksum, so an interrupted run
// leaves the page marked for regeneration.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, "docs.db", "")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	page, err := store.GetPageByPath(ctx, "/2024/wk-01")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // new page
//	}
package storage
