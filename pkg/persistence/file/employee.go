package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
)

// EmployeeRepository handles employee file operations.
type EmployeeRepository struct {
	employees *collection
}

func NewEmployeeRepository(root string) *EmployeeRepository {
	return &EmployeeRepository{employees: newCollection(root, "employees")}
}

// GetAll returns every live employee, oldest first.
func (er *EmployeeRepository) GetAll(_ context.Context) ([]*models.Employee, error) {
	er.employees.mu.RLock()
	defer er.employees.mu.RUnlock()

	ids, err := er.employees.ids()
	if err != nil {
		return nil, err
	}

	employees := make([]*models.Employee, 0, len(ids))

	for _, id := range ids {
		var employee models.Employee

		found, err := er.employees.read(id, &employee)
		if err != nil {
			return nil, err
		}

		if found && employee.DeletedAt == nil {
			employees = append(employees, &employee)
		}
	}

	sort.Slice(employees, func(i, j int) bool {
		return employees[i].CreatedAt.Before(employees[j].CreatedAt)
	})

	return employees, nil
}

func (er *EmployeeRepository) GetByID(_ context.Context, id string) (*models.Employee, error) {
	er.employees.mu.RLock()
	defer er.employees.mu.RUnlock()

	return er.get(id)
}

func (er *EmployeeRepository) get(id string) (*models.Employee, error) {
	var employee models.Employee

	found, err := er.employees.read(id, &employee)
	if err != nil {
		return nil, persistence.NewEmployeeError("GetByID", id, err)
	}

	if !found || employee.DeletedAt != nil {
		return nil, persistence.NewEmployeeError("GetByID", id, persistence.ErrEmployeeNotFound)
	}

	return &employee, nil
}

func (er *EmployeeRepository) Create(_ context.Context, employee *models.Employee) error {
	er.employees.mu.Lock()
	defer er.employees.mu.Unlock()

	var existing models.Employee

	found, err := er.employees.read(employee.ID, &existing)
	if err != nil {
		return persistence.NewEmployeeError("Create", employee.ID, err)
	}

	if found {
		return persistence.NewEmployeeError("Create", employee.ID, persistence.ErrEmployeeAlreadyExists)
	}

	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	return er.employees.write(employee.ID, employee)
}

func (er *EmployeeRepository) Update(_ context.Context, employee *models.Employee) error {
	er.employees.mu.Lock()
	defer er.employees.mu.Unlock()

	existing, err := er.get(employee.ID)
	if err != nil {
		return err
	}

	employee.CreatedAt = existing.CreatedAt
	employee.UpdatedAt = time.Now().UTC()

	return er.employees.write(employee.ID, employee)
}

// Delete marks the employee as deleted.
func (er *EmployeeRepository) Delete(_ context.Context, id string) error {
	er.employees.mu.Lock()
	defer er.employees.mu.Unlock()

	employee, err := er.get(id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	employee.DeletedAt = &now
	employee.UpdatedAt = now

	return er.employees.write(id, employee)
}
