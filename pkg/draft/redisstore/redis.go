// Package redisstore provides a Redis draft backend, shared by every wizard
// host pointing at the same server.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dukex/roster/pkg/draft"
	"github.com/redis/go-redis/v9"
)

// Backend stores draft keys as Redis strings.
type Backend struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// Option configures a Backend.
type Option func(*Backend)

// WithKeyPrefix prefixes every key, e.g. "roster:draft".
func WithKeyPrefix(prefix string) Option {
	return func(b *Backend) {
		b.keyPrefix = prefix
	}
}

// WithTTL expires untouched keys after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.ttl = ttl
	}
}

// New wraps an existing client.
func New(client redis.Cmdable, opts ...Option) *Backend {
	b := &Backend{client: client}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewFromURL connects to the server described by a redis:// URL.
func NewFromURL(rawURL string, opts ...Option) (*Backend, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return New(redis.NewClient(options), opts...), nil
}

func (b *Backend) prefixedKey(key string) string {
	if b.keyPrefix == "" {
		return key
	}

	return b.keyPrefix + ":" + key
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, b.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, draft.ErrKeyNotFound
		}

		return nil, fmt.Errorf("failed to read draft key %s: %w", key, err)
	}

	return value, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.prefixedKey(key), value, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write draft key %s: %w", key, err)
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, b.prefixedKey(key))
	}

	if err := b.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete draft keys: %w", err)
	}

	return nil
}

// Ping reports whether the server is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error {
	if closer, ok := b.client.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
