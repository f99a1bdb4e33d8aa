package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/hotbundle/hotbundle/internal/platform"
)

// SQLite is a Store kept in a single-table sqlite database.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (creating if needed) the database at dbPath.
// Use ":memory:" for a throwaway database.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := platform.EnsureDir(filepath.Dir(dbPath)); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	return s.Apply(map[string]string{key: value}, nil)
}

func (s *SQLite) Remove(key string) error {
	return s.Apply(nil, []string{key})
}

// Apply runs all changes in one transaction.
func (s *SQLite) Apply(set map[string]string, remove []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for k, v := range set {
		if _, err := tx.Exec(
			"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			k, v,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert key %q: %w", k, err)
		}
	}
	for _, k := range remove {
		if _, err := tx.Exec("DELETE FROM kv WHERE key = ?", k); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete key %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
