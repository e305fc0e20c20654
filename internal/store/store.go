// Package store maintains the host-facing SQLite search index. It is
// rebuilt wholesale from each completed scan generation, so queries
// never observe entries from two generations mixed together.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fsidx/internal/entry"
)

const insertEntrySQL = `INSERT INTO entries (id, name, name_lower, path, kind, mime) VALUES (?, ?, ?, ?, ?, ?)`
const upsertMetaSQL = `INSERT OR REPLACE INTO meta (id, generation, finished, entry_count) VALUES (1, ?, ?, ?)`

// Store wraps the search index database.
type Store struct {
	db *sql.DB
}

// Meta describes the generation currently held by the store.
type Meta struct {
	Generation int64
	Finished   time.Time
	EntryCount int64
}

// Open opens (or creates) the store at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the store content for a new generation in a single
// transaction.
func (s *Store) Replace(generation int64, finished time.Time, entries []entry.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.Prepare(insertEntrySQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID, e.Name, strings.ToLower(e.Name), e.Path, e.Kind, e.Mime); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", e.ID, err)
		}
	}

	if _, err := tx.Exec(upsertMetaSQL, generation, finished.Unix(), int64(len(entries))); err != nil {
		return fmt.Errorf("failed to update meta: %w", err)
	}

	return tx.Commit()
}

// QueryName returns entries whose name contains term,
// case-insensitive, ordered by name.
func (s *Store) QueryName(term string, limit int) ([]entry.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	rows, err := s.db.Query(
		`SELECT id, name, path, kind, mime FROM entries
		 WHERE name_lower LIKE ? ESCAPE '\'
		 ORDER BY name_lower LIMIT ?`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// QueryMime returns entries matching an exact MIME type or a "type/"
// prefix, ordered by name.
func (s *Store) QueryMime(mimeType string, limit int) ([]entry.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if prefix, ok := strings.CutSuffix(mimeType, "/*"); ok {
		rows, err = s.db.Query(
			`SELECT id, name, path, kind, mime FROM entries
			 WHERE mime LIKE ? ORDER BY name_lower LIMIT ?`,
			prefix+"/%", limit,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, name, path, kind, mime FROM entries
			 WHERE mime = ? ORDER BY name_lower LIMIT ?`,
			mimeType, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count returns the number of entries in the store.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// ReadMeta returns the stored generation metadata, or zero values when
// the store has never been filled.
func (s *Store) ReadMeta() (Meta, error) {
	var m Meta
	var finished int64
	err := s.db.QueryRow(`SELECT generation, finished, entry_count FROM meta WHERE id = 1`).
		Scan(&m.Generation, &finished, &m.EntryCount)
	if err == sql.ErrNoRows {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, err
	}
	m.Finished = time.Unix(finished, 0)
	return m, nil
}

func scanEntries(rows *sql.Rows) ([]entry.Entry, error) {
	var out []entry.Entry
	for rows.Next() {
		var e entry.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Path, &e.Kind, &e.Mime); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
