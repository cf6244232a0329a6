// Package services holds the business rules of the reference employee backend.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dukex/roster/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEmptyEmployeeID   = errors.New("employee ID cannot be empty")
	ErrEmployeeNotFound  = persistence.ErrEmployeeNotFound
	ErrEmployeeConflict  = persistence.ErrEmployeeAlreadyExists
	ErrPersonIDRequired  = errors.New("person_id is required")
	ErrEmptyCatalogEntry = errors.New("catalog entries need an id and a name")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Fields  map[string]string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyEmployeeID) ||
		errors.Is(err, ErrPersonIDRequired) ||
		errors.Is(err, ErrEmptyCatalogEntry)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}

// IsConflictError checks if an error should return HTTP 409.
func IsConflictError(err error) bool {
	return persistence.IsAlreadyExists(err)
}

// FieldErrors returns the per-field messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Fields
	}

	return nil
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// newStructError turns validator failures into a ServiceError listing every
// invalid field by its JSON name.
func newStructError(op string, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%s: %w", op, err)
	}

	fields := make(map[string]string, len(validationErrors))
	names := make([]string, 0, len(validationErrors))

	for _, fe := range validationErrors {
		fields[fe.Field()] = fe.Tag()
		names = append(names, fe.Field())
	}

	sort.Strings(names)

	return &ServiceError{
		Op:      op,
		Code:    "validation_error",
		Message: "invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
		Err:     ErrInvalidRequest,
	}
}
