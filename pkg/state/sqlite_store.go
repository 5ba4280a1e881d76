package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	settings "github.com/mldkyt/go-settings"
	_ "modernc.org/sqlite"
)

var _ settings.Store = (*SQLiteStore)(nil)

const sqliteMemoryPath = ":memory:"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	domain     TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (domain, key)
);
`

// SQLiteStore keeps values in a single settings table.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteStore opens (and migrates) the database at path. Use ":memory:"
// for a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state: sqlite path is required")
	}

	dsn := path
	if path != sqliteMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("state: creating sqlite directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("state: opening sqlite: %w", err)
	}
	if path == sqliteMemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("state: migrating sqlite: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("state: migrating sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, domain, key string) (string, bool, error) {
	if _, err := (Ref{Domain: domain, Key: key}).Identifier(); err != nil {
		return "", false, err
	}
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE domain = ? AND key = ?`, domain, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("state: sqlite get: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, domain, key, value string) error {
	if _, err := (Ref{Domain: domain, Key: key}).Identifier(); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (domain, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (domain, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		domain, key, value)
	if err != nil {
		return fmt.Errorf("state: sqlite set: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, domain, key string) error {
	if _, err := (Ref{Domain: domain, Key: key}).Identifier(); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE domain = ? AND key = ?`, domain, key); err != nil {
		return fmt.Errorf("state: sqlite delete: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
