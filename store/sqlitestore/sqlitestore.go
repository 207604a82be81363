// Package sqlitestore keeps indexes in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/store"

	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS indexes (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Store is a store.Store over SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path and runs the migrations.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// one connection keeps writes serialized and an in-memory database
	// alive
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitestore: %s: %w", p, err)
		}
	}
	s := &Store{db: db, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("sqlite store opened", "path", path)
	return s, nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("sqlitestore: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexes WHERE key = ?`, key).Scan(&n)
	return n > 0, err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM indexes WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return data, err
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO indexes (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
