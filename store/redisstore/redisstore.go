// Package redisstore keeps indexes in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the keys written by a Store.
const DefaultPrefix = "deltav:"

// Options configures a Store.
type Options struct {
	// URL is a redis:// or rediss:// URL.
	URL    string
	Prefix string
}

// Client is the subset of the redis client used by Store.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Store is a store.Store over Redis.
type Store struct {
	client Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// New connects to the server named by opts.URL.
func New(ctx context.Context, opts Options) (*Store, error) {
	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse url: %w", err)
	}
	c := redis.NewClient(ro)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return NewWithClient(c, opts.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix means
// DefaultPrefix.
func NewWithClient(c Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: c, prefix: prefix}
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	return n > 0, err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return data, err
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, data, 0).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
