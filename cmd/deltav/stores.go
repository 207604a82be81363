package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Reposoft/repos-deltav-sub000/store"
	"github.com/Reposoft/repos-deltav-sub000/store/badgerstore"
	"github.com/Reposoft/repos-deltav-sub000/store/redisstore"
	"github.com/Reposoft/repos-deltav-sub000/store/sqlitestore"
)

// openStore opens the store named by u:
//
//	mem://                 in-memory, for trying things out
//	file://dir or dir      one file per index below dir
//	badger://dir           BadgerDB in dir
//	badger://              in-memory BadgerDB
//	sqlite://file          SQLite database file
//	redis://host:port/db   Redis, see redis.ParseURL (also rediss://)
func openStore(ctx context.Context, u string, log *slog.Logger) (store.Store, error) {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		scheme, rest = "file", u
	}
	switch scheme {
	case "mem":
		return store.NewMemory(), nil
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("%w: %q: directory required", errStoreURL, u)
		}
		return store.OpenDir(rest, 022, log)
	case "badger":
		cfg := badgerstore.InMemoryConfig()
		if rest != "" {
			cfg = badgerstore.DefaultConfig(rest)
		}
		cfg.Logger = log
		return badgerstore.Open(cfg)
	case "sqlite":
		if rest == "" {
			return nil, fmt.Errorf("%w: %q: database file required", errStoreURL, u)
		}
		return sqlitestore.Open(ctx, rest, log)
	case "redis", "rediss":
		return redisstore.New(ctx, redisstore.Options{URL: u})
	}
	return nil, fmt.Errorf("%w: unknown scheme %q", errStoreURL, scheme)
}
