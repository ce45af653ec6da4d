// Package database owns the SQLite handle and schema shared by the mapping
// store and the uploaded-file records.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS header_mappings (
	scope             TEXT NOT NULL,
	scope_key         TEXT NOT NULL DEFAULT '',
	normalized_header TEXT NOT NULL,
	canonical_field   TEXT NOT NULL,
	confidence        REAL NOT NULL,
	hits              INTEGER NOT NULL DEFAULT 1,
	last_seen_at      TIMESTAMP NOT NULL,
	PRIMARY KEY (scope, scope_key, normalized_header)
);

CREATE TABLE IF NOT EXISTS uploaded_files (
	id                TEXT PRIMARY KEY,
	file_name         TEXT NOT NULL,
	scope_key         TEXT NOT NULL DEFAULT '',
	vendor_type       TEXT NOT NULL,
	storage_path      TEXT NOT NULL,
	size_bytes        INTEGER NOT NULL DEFAULT 0,
	processing_status TEXT NOT NULL,
	result_json       BLOB,
	uploaded_at       TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploaded_files_status ON uploaded_files (processing_status);
CREATE INDEX IF NOT EXISTS idx_uploaded_files_scope  ON uploaded_files (scope_key);
`

// Open connects to the SQLite database at path and ensures the schema
// exists. Use ":memory:" for tests.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite serializes writers; a single connection avoids busy errors
	// under the batch processor's concurrent upserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	return db, nil
}
