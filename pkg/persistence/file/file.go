// Package file provides file-based persistence for the reference backend.
// Every record is a JSON file under the root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/roster/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root            string
	employeeRepo    *EmployeeRepository
	bankAccountRepo *BankAccountRepository
	catalogRepo     *CatalogRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:            cleanRoot,
		employeeRepo:    NewEmployeeRepository(cleanRoot),
		bankAccountRepo: NewBankAccountRepository(cleanRoot),
		catalogRepo:     NewCatalogRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck creates the root directory when missing and verifies it is a directory.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(fp.root, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	info, err := os.Stat(fp.root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", fp.root)
	}

	return nil
}

func (fp *Persistence) EmployeeRepository() persistence.EmployeeRepository {
	return fp.employeeRepo
}

func (fp *Persistence) BankAccountRepository() persistence.BankAccountRepository {
	return fp.bankAccountRepo
}

func (fp *Persistence) CatalogRepository() persistence.CatalogRepository {
	return fp.catalogRepo
}

// collection is a directory holding one JSON file per record.
type collection struct {
	dir string
	mu  sync.RWMutex
}

func newCollection(root, name string) *collection {
	return &collection{dir: filepath.Join(root, name)}
}

func (c *collection) path(id string) string {
	return filepath.Join(c.dir, filepath.Base(id)+".json")
}

// read decodes the record id into v. It reports false when the file is missing.
func (c *collection) read(id string, v any) (bool, error) {
	body, err := os.ReadFile(c.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", id, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}

	return true, nil
}

func (c *collection) write(id string, v any) error {
	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return os.WriteFile(c.path(id), data, 0600)
}

// ids lists the record ids of the collection.
func (c *collection) ids() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.dir, err)
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(match), ".json"))
	}

	return ids, nil
}
