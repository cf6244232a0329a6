// Package draft persists the in-progress state of an onboarding wizard so a
// session survives reloads and restarts. The store writes every field change
// through to a key/value Backend and publishes entity id changes to watchers.
package draft

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrKeyNotFound is returned by a Backend when a key holds no value.
var ErrKeyNotFound = errors.New("draft key not found")

// Backend is the key/value storage behind a Store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// MemoryBackend keeps values in process memory. It is the default backend and
// the one used by tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	return slices.Clone(value), nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = slices.Clone(value)

	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}

	return nil
}

// Keys lists the stored keys in sorted order.
func (m *MemoryBackend) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.values))
}

func (m *MemoryBackend) Close() error {
	return nil
}
