package wizardweb

import (
	"errors"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/wizard"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// FieldProblem is a problem document listing invalid form fields.
type FieldProblem struct {
	*problems.Problem

	Errors map[string]string `json:"errors,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("bad_request").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func invalidFields(c fiber.Ctx, detail string, fields map[string]string) error {
	problem := FieldProblem{
		Problem: problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(detail),
		Errors: fields,
	}

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

func conflict(c fiber.Ctx, kind string, err error) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(err.Error())

	return c.Status(fiber.StatusConflict).JSON(problem)
}

// handleWizardError maps controller and session errors to problem responses.
func handleWizardError(c fiber.Ctx, err error) error {
	var validationErr *wizard.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return invalidFields(c, err.Error(), validationErr.FieldErrors)

	case errors.Is(err, ErrSessionNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("session_not_found").
			WithDetail("session not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, wizard.ErrUnknownStep), errors.Is(err, models.ErrUnknownField):
		return badRequest(c, err.Error())

	case errors.Is(err, wizard.ErrStepLocked):
		return conflict(c, "step_locked", err)

	case errors.Is(err, wizard.ErrSubmitInFlight):
		return conflict(c, "submit_in_flight", err)

	case errors.Is(err, wizard.ErrWizardCompleted):
		return conflict(c, "wizard_completed", err)

	case errors.Is(err, wizard.ErrEntityRequired):
		return conflict(c, "entity_required", err)

	case errors.Is(err, wizard.ErrStaleTransition):
		return conflict(c, "stale_transition", err)

	case errors.Is(err, wizard.ErrAutoAdvanceStep),
		errors.Is(err, wizard.ErrNoFormForStep),
		errors.Is(err, wizard.ErrStepMismatch):
		return conflict(c, "wrong_step", err)

	case wizard.IsTransitionError(err):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("backend_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
