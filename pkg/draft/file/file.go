// Package file provides a file-based draft backend: one JSON file per key.
package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/roster/pkg/draft"
)

// Backend stores each draft key as a file under root/drafts.
type Backend struct {
	root string
}

// NewBackend creates a backend rooted at root. A file:// prefix is accepted.
func NewBackend(root string) *Backend {
	return &Backend{root: filepath.Join(strings.Replace(root, "file://", "", 1), "drafts")}
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.root, url.QueryEscape(key)+".json")
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	body, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, draft.ErrKeyNotFound
		}

		return nil, fmt.Errorf("failed to read draft key %s: %w", key, err)
	}

	return body, nil
}

// Set writes the value to a temporary file and renames it over the key file,
// so readers never observe a partial write.
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(b.root, 0750); err != nil {
		return fmt.Errorf("failed to create drafts directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.root, ".draft-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary draft file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to write draft key %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write draft key %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		return fmt.Errorf("failed to store draft key %s: %w", key, err)
	}

	return nil
}

func (b *Backend) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		err := os.Remove(b.path(key))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete draft key %s: %w", key, err)
		}
	}

	return nil
}

func (b *Backend) Close() error {
	return nil
}
