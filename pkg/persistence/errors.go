package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrEmployeeNotFound indicates no live employee exists with the given id.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrEmployeeAlreadyExists indicates an employee with the same id already exists.
	ErrEmployeeAlreadyExists = errors.New("employee already exists")

	// ErrBankAccountAlreadyExists indicates a bank account with the same id already exists.
	ErrBankAccountAlreadyExists = errors.New("bank account already exists")
)

// EmployeeError wraps employee-related errors with additional context.
type EmployeeError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Update", "Delete")
	EmployeeID string
	Err        error
}

func (e *EmployeeError) Error() string {
	return fmt.Sprintf("%s operation failed for employee %s: %v", e.Op, e.EmployeeID, e.Err)
}

func (e *EmployeeError) Unwrap() error {
	return e.Err
}

func (e *EmployeeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewEmployeeError(op, employeeID string, err error) *EmployeeError {
	return &EmployeeError{
		Op:         op,
		EmployeeID: employeeID,
		Err:        err,
	}
}

// IsEmployeeNotFound checks if an error indicates an employee was not found.
func IsEmployeeNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}

// IsAlreadyExists checks if an error indicates a duplicate id.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmployeeAlreadyExists) || errors.Is(err, ErrBankAccountAlreadyExists)
}
