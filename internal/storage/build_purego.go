//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// Default build. No C compiler required:
//   CGO_ENABLED=0 go build ./...
//
// Uses modernc.org/sqlite.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered by this build
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
