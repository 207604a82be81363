// Package badgerstore keeps indexes in an embedded BadgerDB.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Reposoft/repos-deltav-sub000/store"
	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "vfile/"

// Config configures a Store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	InMemory   bool
	SyncWrites bool

	// Logger receives badger's own log output. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a persistent configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store is a store.Store over BadgerDB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badgerstore: path required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: cfg.Logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open: %w", err)
	}
	cfg.Logger.Debug("badger store opened", "path", cfg.Path, "in_memory", cfg.InMemory)
	return &Store{db: db, logger: cfg.Logger}, nil
}

func dbKey(key string) []byte {
	return []byte(keyPrefix + key)
}

func (s *Store) Has(_ context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dbKey(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return data, err
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	// badger retains the slice until the transaction commits
	val := append([]byte(nil), data...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), val)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's logger interface to slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
