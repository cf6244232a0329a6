package mocks

import (
	"context"

	"github.com/dukex/roster/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of gateway.Gateway interface.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateEmployee(ctx context.Context, person models.PersonPayload) (*models.Employee, error) {
	args := m.Called(ctx, person)

	if employee, ok := args.Get(0).(*models.Employee); ok {
		return employee, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockGateway) UpdateEmployee(ctx context.Context, id string, person models.PersonPayload) (*models.Employee, error) {
	args := m.Called(ctx, id, person)

	if employee, ok := args.Get(0).(*models.Employee); ok {
		return employee, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockGateway) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	args := m.Called(ctx, id)

	if employee, ok := args.Get(0).(*models.Employee); ok {
		return employee, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockGateway) DeleteEmployee(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockGateway) CreateBankAccount(ctx context.Context, employeeID string, account models.BankAccountRequest) (*models.BankAccount, error) {
	args := m.Called(ctx, employeeID, account)

	if created, ok := args.Get(0).(*models.BankAccount); ok {
		return created, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockGateway) FilterBankAccounts(ctx context.Context, personID string) ([]models.BankAccount, error) {
	args := m.Called(ctx, personID)

	if accounts, ok := args.Get(0).([]models.BankAccount); ok {
		return accounts, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockGateway) FilterPaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error) {
	args := m.Called(ctx, filter)

	if pto, ok := args.Get(0).([]models.PaidTimeOff); ok {
		return pto, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockGateway) FilterRoles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error) {
	args := m.Called(ctx, filter)

	if roles, ok := args.Get(0).([]models.Role); ok {
		return roles, args.Error(1)
	}

	return nil, args.Error(1)
}
