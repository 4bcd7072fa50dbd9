package storage

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// migrator is a database that can run schema migrations
type migrator interface {
	// schemaVersion returns the last applied version, or "" when none
	schemaVersion(ctx context.Context) (string, error)
	// applyMigration runs m.Up and records its version
	applyMigration(ctx context.Context, m Migration) error
}

// applyMigrations runs every migration newer than the current schema version
func applyMigrations(ctx context.Context, db migrator, migrations []Migration) error {
	current := semver.MustParse("0.0.0")

	v, err := db.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if v != "" {
		current, err = semver.NewVersion(v)
		if err != nil {
			return fmt.Errorf("invalid current schema version %s: %w", v, err)
		}
	}

	for _, m := range migrations {
		version, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", m.Version, err)
		}
		if !current.LessThan(version) {
			continue
		}

		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
		current = version
	}

	return nil
}
