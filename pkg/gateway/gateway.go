// Package gateway is the client of the employee backend used by the wizard.
package gateway

import (
	"context"

	"github.com/dukex/roster/pkg/models"
)

// Gateway is the set of backend operations the onboarding wizard relies on.
type Gateway interface {
	CreateEmployee(ctx context.Context, person models.PersonPayload) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, person models.PersonPayload) (*models.Employee, error)
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	CreateBankAccount(ctx context.Context, employeeID string, account models.BankAccountRequest) (*models.BankAccount, error)
	FilterBankAccounts(ctx context.Context, personID string) ([]models.BankAccount, error)
	FilterPaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error)
	FilterRoles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error)
}
