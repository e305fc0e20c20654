package store

import (
	"database/sql"
	"fmt"
)

const entriesTableDDL = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    name_lower TEXT NOT NULL,
    path TEXT NOT NULL,
    kind INTEGER NOT NULL,
    mime TEXT NOT NULL
);
`

const metaTableDDL = `
CREATE TABLE IF NOT EXISTS meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    generation INTEGER NOT NULL,
    finished INTEGER NOT NULL,
    entry_count INTEGER NOT NULL
);
`

const nameIndexDDL = `CREATE INDEX IF NOT EXISTS idx_entries_name ON entries(name_lower);`
const mimeIndexDDL = `CREATE INDEX IF NOT EXISTS idx_entries_mime ON entries(mime);`

// InitSchema creates all tables and indexes.
func InitSchema(db *sql.DB) error {
	ddls := []string{
		entriesTableDDL,
		metaTableDDL,
		nameIndexDDL,
		mimeIndexDDL,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}
	return nil
}

// applyPragmas configures SQLite for the store's write-rebuild,
// read-mostly workload.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}
	return nil
}
