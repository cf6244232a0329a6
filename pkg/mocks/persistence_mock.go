package mocks

import (
	"context"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockEmployeeRepository is a mock implementation of persistence.EmployeeRepository interface.
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) GetAll(ctx context.Context) ([]*models.Employee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)

	return args.Error(0)
}

func (m *MockEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)

	return args.Error(0)
}

func (m *MockEmployeeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
// Only the employee repository is mocked; the others are returned as set.
type MockPersistence struct {
	mock.Mock

	Employees    *MockEmployeeRepository
	BankAccounts persistence.BankAccountRepository
	Catalogs     persistence.CatalogRepository
}

func (m *MockPersistence) EmployeeRepository() persistence.EmployeeRepository {
	return m.Employees
}

func (m *MockPersistence) BankAccountRepository() persistence.BankAccountRepository {
	return m.BankAccounts
}

func (m *MockPersistence) CatalogRepository() persistence.CatalogRepository {
	return m.Catalogs
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
