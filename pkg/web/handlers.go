// Package web provides the HTTP handlers of the reference employee backend.
package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/services"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	employeeService *services.Employee
}

func NewAPIHandlers(employeeService *services.Employee) *APIHandlers {
	return &APIHandlers{
		employeeService: employeeService,
	}
}

// RequireToken rejects requests whose bearer token differs from token.
// An empty token disables the check.
func RequireToken(token string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		provided, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return unauthorized(c)
		}

		return c.Next()
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.employeeService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Roster API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Roster API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) ListEmployees(c fiber.Ctx) error {
	employees, err := h.employeeService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(listOf(employees))
}

func (h *APIHandlers) GetEmployee(c fiber.Ctx) error {
	employee, err := h.employeeService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(employee)
}

func (h *APIHandlers) CreateEmployee(c fiber.Ctx) error {
	var req models.PersonPayload
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	employee, err := h.employeeService.Create(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(employee)
}

func (h *APIHandlers) UpdateEmployee(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Employee ID is required")
	}

	var req models.PersonPayload
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	employee, err := h.employeeService.Update(c.Context(), id, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(employee)
}

func (h *APIHandlers) DeleteEmployee(c fiber.Ctx) error {
	if err := h.employeeService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateBankAccount(c fiber.Ctx) error {
	var req models.BankAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	account, err := h.employeeService.CreateBankAccount(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *APIHandlers) FilterBankAccounts(c fiber.Ctx) error {
	var filter models.BankAccountFilter
	if err := c.Bind().JSON(&filter); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	accounts, err := h.employeeService.FilterBankAccounts(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(listOf(accounts))
}

func (h *APIHandlers) FilterRoles(c fiber.Ctx) error {
	filter, err := bindCatalogFilter(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	roles, err := h.employeeService.Roles(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(listOf(roles))
}

func (h *APIHandlers) FilterPaidTimeOff(c fiber.Ctx) error {
	filter, err := bindCatalogFilter(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	pto, err := h.employeeService.PaidTimeOff(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(listOf(pto))
}

// bindCatalogFilter accepts an empty body as "match everything".
func bindCatalogFilter(c fiber.Ctx) (models.CatalogFilter, error) {
	var filter models.CatalogFilter

	if len(c.Body()) == 0 {
		return filter, nil
	}

	err := c.Bind().JSON(&filter)

	return filter, err
}

// Register mounts every backend route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	e := router.Group("/employees")
	e.Get("/", h.ListEmployees)
	e.Post("/", h.CreateEmployee)
	e.Get("/:id", h.GetEmployee)
	e.Put("/:id", h.UpdateEmployee)
	e.Delete("/:id", h.DeleteEmployee)
	e.Post("/:id/create-bank-account", h.CreateBankAccount)

	router.Post("/bank-accounts/filter", h.FilterBankAccounts)
	router.Post("/roles/filter", h.FilterRoles)
	router.Post("/paid-time-off/filter", h.FilterPaidTimeOff)
}
