// ABOUTME: SQLite-backed implementation of the Storage interface
// ABOUTME: Stores each collection snapshot as a row in the kv table
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Connection settings for whole-collection snapshot writes.
const sqliteParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// SQLiteStorage persists snapshots in a local SQLite file.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage wraps an open database. The kv table must exist (see InitSchema).
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// OpenSQLiteStorage opens the database at path, creating the file, its parent
// directory and the kv table when missing.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; a second connection would only contend for the lock
	conn.SetMaxOpenConns(1)

	if err := InitSchema(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewSQLiteStorage(conn), nil
}

func (s *SQLiteStorage) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteStorage) Set(key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, key, value, time.Now().UTC())
	return err
}

func (s *SQLiteStorage) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// UpdatedAt reports when key was last written. ok is false for a missing key.
func (s *SQLiteStorage) UpdatedAt(key string) (t time.Time, ok bool, err error) {
	err = s.db.QueryRow(`SELECT updated_at FROM kv WHERE key = ?`, key).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
