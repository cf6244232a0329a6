// Package persistence provides the storage layer of the reference employee backend.
package persistence

import (
	"context"
	"slices"
	"strings"

	"github.com/dukex/roster/pkg/models"
)

type Persistence interface {
	EmployeeRepository() EmployeeRepository
	BankAccountRepository() BankAccountRepository
	CatalogRepository() CatalogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// EmployeeRepository stores employees. Deleted employees are kept with a
// deletion timestamp and are invisible to every read.
type EmployeeRepository interface {
	GetAll(ctx context.Context) ([]*models.Employee, error)
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
}

type BankAccountRepository interface {
	Create(ctx context.Context, account *models.BankAccount) error
	// ListByPerson returns the accounts of an employee, oldest first.
	ListByPerson(ctx context.Context, personID string) ([]models.BankAccount, error)
}

type CatalogRepository interface {
	Roles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error)
	SaveRoles(ctx context.Context, roles []models.Role) error
	PaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error)
	SavePaidTimeOff(ctx context.Context, pto []models.PaidTimeOff) error
}

// MatchCatalog reports whether a catalog entry passes filter: its id must be
// listed when IDs is set and its name must contain Search, ignoring case.
func MatchCatalog(filter models.CatalogFilter, id, name string) bool {
	if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, id) {
		return false
	}

	if filter.Search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(filter.Search)) {
		return false
	}

	return true
}
