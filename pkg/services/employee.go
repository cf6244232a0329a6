package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dukex/roster/pkg/eventbus"
	"github.com/dukex/roster/pkg/events"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
	"github.com/dukex/roster/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventSource names this service on published events.
const EventSource = "roster-api"

// Employee manages employees, their bank accounts and the catalogs the
// onboarding forms pick from.
type Employee struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewEmployee creates a new employee service. publisher may be nil, in which
// case no lifecycle events are emitted.
func NewEmployee(persistence persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Employee {
	return &Employee{
		persistence: persistence,
		publisher:   publisher,
		validate:    validation.New(),
		logger:      logger.With("module", "employee_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Employee) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (s *Employee) List(ctx context.Context) ([]*models.Employee, error) {
	employees, err := s.persistence.EmployeeRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	return employees, nil
}

func (s *Employee) Get(ctx context.Context, id string) (*models.Employee, error) {
	if id == "" {
		return nil, ErrEmptyEmployeeID
	}

	employee, err := s.persistence.EmployeeRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee, nil
}

// Create stores a new employee built from payload and assigns its id.
func (s *Employee) Create(ctx context.Context, payload models.PersonPayload) (*models.Employee, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, newStructError("create employee", err)
	}

	employee := &models.Employee{ID: uuid.New().String()}
	payload.ApplyTo(employee)

	if employee.PaidTimeOffIDs == nil {
		employee.PaidTimeOffIDs = []string{}
	}

	if err := s.persistence.EmployeeRepository().Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	s.publish(ctx, employee.ID, events.NewEmployeeCreated(EventSource, employee.ID, employee.Email))

	return employee, nil
}

// Update merges the fields present in payload into the stored employee.
func (s *Employee) Update(ctx context.Context, id string, payload models.PersonPayload) (*models.Employee, error) {
	if id == "" {
		return nil, ErrEmptyEmployeeID
	}

	if err := s.validate.Struct(payload); err != nil {
		return nil, newStructError("update employee", err)
	}

	repo := s.persistence.EmployeeRepository()

	employee, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	payload.ApplyTo(employee)

	if err := repo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	s.publish(ctx, id, events.NewEmployeeUpdated(EventSource, id, providedFields(payload)))

	return employee, nil
}

func (s *Employee) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyEmployeeID
	}

	if err := s.persistence.EmployeeRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	s.publish(ctx, id, events.NewEmployeeDeleted(EventSource, id))

	return nil
}

// CreateBankAccount attaches a new bank account to an existing employee.
func (s *Employee) CreateBankAccount(ctx context.Context, employeeID string, req models.BankAccountRequest) (*models.BankAccount, error) {
	if employeeID == "" {
		return nil, ErrEmptyEmployeeID
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, newStructError("create bank account", err)
	}

	if _, err := s.persistence.EmployeeRepository().GetByID(ctx, employeeID); err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	account := &models.BankAccount{
		ID:            uuid.New().String(),
		PersonID:      employeeID,
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		Currency:      req.Currency,
		Country:       req.Country,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.persistence.BankAccountRepository().Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create bank account: %w", err)
	}

	s.publish(ctx, employeeID, events.NewEmployeeUpdated(EventSource, employeeID, []string{"bank_accounts"}))

	return account, nil
}

func (s *Employee) FilterBankAccounts(ctx context.Context, filter models.BankAccountFilter) ([]models.BankAccount, error) {
	if filter.PersonID == "" {
		return nil, ErrPersonIDRequired
	}

	accounts, err := s.persistence.BankAccountRepository().ListByPerson(ctx, filter.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to filter bank accounts: %w", err)
	}

	return accounts, nil
}

func (s *Employee) Roles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error) {
	roles, err := s.persistence.CatalogRepository().Roles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to filter roles: %w", err)
	}

	return roles, nil
}

func (s *Employee) PaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error) {
	pto, err := s.persistence.CatalogRepository().PaidTimeOff(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to filter paid time off: %w", err)
	}

	return pto, nil
}

// SeedCatalogs upserts the configured roles and paid time off types.
func (s *Employee) SeedCatalogs(ctx context.Context, roles []models.Role, pto []models.PaidTimeOff) error {
	for _, role := range roles {
		if role.ID == "" || role.Name == "" {
			return NewValidationError("seed catalogs", "invalid_role", "role "+role.ID+" is incomplete", ErrEmptyCatalogEntry)
		}
	}

	for _, entry := range pto {
		if entry.ID == "" || entry.Name == "" {
			return NewValidationError("seed catalogs", "invalid_pto", "paid time off "+entry.ID+" is incomplete", ErrEmptyCatalogEntry)
		}
	}

	catalogs := s.persistence.CatalogRepository()

	if len(roles) > 0 {
		if err := catalogs.SaveRoles(ctx, roles); err != nil {
			return fmt.Errorf("failed to seed roles: %w", err)
		}
	}

	if len(pto) > 0 {
		if err := catalogs.SavePaidTimeOff(ctx, pto); err != nil {
			return fmt.Errorf("failed to seed paid time off: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "catalogs seeded", "roles", len(roles), "paid_time_off", len(pto))

	return nil
}

// publish emits event keyed by the employee id. Delivery failures are logged
// and never fail the request that caused them.
func (s *Employee) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.GetType(),
			"employee_id", key,
			"error", err)
	}
}

// providedFields lists the JSON names of the fields set in payload.
func providedFields(payload models.PersonPayload) []string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}

	fields := make([]string, 0, len(values))

	for name, value := range values {
		if strings.TrimSpace(string(value)) == "null" {
			continue
		}

		fields = append(fields, name)
	}

	sort.Strings(fields)

	return fields
}
