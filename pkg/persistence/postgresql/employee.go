package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
	"github.com/lib/pq"
)

const (
	uniqueViolation      = "23505"
	invalidTextRepresent = "22P02"
)

// isMalformedID reports whether err comes from an id that is not a UUID;
// such an id cannot name any stored employee.
func isMalformedID(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresent
}

// EmployeeRepository keeps searchable columns next to the full employee
// document in a JSONB column.
type EmployeeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewEmployeeRepository(db *sql.DB, logger *slog.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

const selectEmployee = `
	SELECT id, data, created_at, updated_at, deleted_at
	FROM employees`

func (r *EmployeeRepository) GetAll(ctx context.Context) ([]*models.Employee, error) {
	rows, err := r.db.QueryContext(ctx, selectEmployee+` WHERE deleted_at IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*models.Employee, 0)

	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}

		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	row := r.db.QueryRowContext(ctx, selectEmployee+` WHERE id = $1 AND deleted_at IS NULL`, id)

	employee, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, persistence.NewEmployeeError("GetByID", id, persistence.ErrEmployeeNotFound)
	}

	if err != nil {
		return nil, persistence.NewEmployeeError("GetByID", id, err)
	}

	return employee, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	data, err := json.Marshal(employee)
	if err != nil {
		return persistence.NewEmployeeError("Create", employee.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO employees (id, email, first_name, last_name, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		employee.ID, employee.Email, employee.FirstName, employee.LastName, data, now, now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewEmployeeError("Create", employee.ID, persistence.ErrEmployeeAlreadyExists)
		}

		return persistence.NewEmployeeError("Create", employee.ID, err)
	}

	r.logger.DebugContext(ctx, "employee created", "employee_id", employee.ID)

	return nil
}

func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(employee)
	if err != nil {
		return persistence.NewEmployeeError("Update", employee.ID, err)
	}

	var createdAt time.Time

	err = r.db.QueryRowContext(ctx, `
		UPDATE employees
		SET email = $2, first_name = $3, last_name = $4, data = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING created_at`,
		employee.ID, employee.Email, employee.FirstName, employee.LastName, data, employee.UpdatedAt,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return persistence.NewEmployeeError("Update", employee.ID, persistence.ErrEmployeeNotFound)
	}

	if err != nil {
		return persistence.NewEmployeeError("Update", employee.ID, err)
	}

	employee.CreatedAt = createdAt

	return nil
}

// Delete soft deletes an employee by setting deleted_at.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE employees SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if isMalformedID(err) {
		return persistence.NewEmployeeError("Delete", id, persistence.ErrEmployeeNotFound)
	}

	if err != nil {
		return persistence.NewEmployeeError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewEmployeeError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewEmployeeError("Delete", id, persistence.ErrEmployeeNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*models.Employee, error) {
	var (
		id        string
		data      []byte
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &data, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	var employee models.Employee
	if err := json.Unmarshal(data, &employee); err != nil {
		return nil, fmt.Errorf("failed to unmarshal employee %s: %w", id, err)
	}

	employee.ID = id
	employee.CreatedAt = createdAt
	employee.UpdatedAt = updatedAt

	if deletedAt.Valid {
		employee.DeletedAt = &deletedAt.Time
	}

	return &employee, nil
}
