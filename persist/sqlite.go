package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chrisuehlinger/multiselect/selection"
)

// SQLiteStore keeps saved selections in a SQLite database, one JSON array per
// key.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", ErrPersistence, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS selections (
			key TEXT PRIMARY KEY,
			value_json TEXT NOT NULL DEFAULT '[]',
			count INTEGER NOT NULL DEFAULT 0,
			updated_utc TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: migrate sqlite db: %v", ErrPersistence, err)
		}
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]selection.Saved, bool, error) {
	var raw string
	row := s.db.QueryRowContext(ctx, `SELECT value_json FROM selections WHERE key = ?`, key)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: get selections: %v", ErrPersistence, err)
	}

	var saved []selection.Saved
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, false, fmt.Errorf("%w: decode selections for %q: %v", ErrPersistence, key, err)
	}
	return saved, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key string, saved []selection.Saved) error {
	if saved == nil {
		saved = []selection.Saved{}
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("%w: encode selections: %v", ErrPersistence, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO selections (key, value_json, count, updated_utc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value_json=excluded.value_json, count=excluded.count, updated_utc=excluded.updated_utc
	`, key, string(raw), len(saved), now); err != nil {
		return fmt.Errorf("%w: set selections: %v", ErrPersistence, err)
	}
	return nil
}

// Delete removes the saved selections for key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selections WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete selections: %v", ErrPersistence, err)
	}
	return nil
}

// Keys lists every key with saved selections.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM selections ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%w: list selections: %v", ErrPersistence, err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: scan selections: %v", ErrPersistence, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate selections: %v", ErrPersistence, err)
	}
	return keys, nil
}
