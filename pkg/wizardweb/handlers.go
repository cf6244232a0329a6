package wizardweb

import (
	"encoding/json"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/validation"
	"github.com/dukex/roster/pkg/wizard"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// SessionResponse is the body returned by every session endpoint.
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Namespace string       `json:"namespace"`
	State     wizard.State `json:"state"`
}

// StepResponse describes one step form.
type StepResponse struct {
	Step    models.StepKey     `json:"step"`
	Label   string             `json:"label"`
	Payload models.StepPayload `json:"payload"`
	Fields  []models.Field     `json:"fields"`
	Schema  map[string]any     `json:"schema"`
}

type Handlers struct {
	manager  *Manager
	metrics  *Metrics
	validate *validator.Validate
}

func NewHandlers(manager *Manager, metrics *Metrics) *Handlers {
	return &Handlers{
		manager:  manager,
		metrics:  metrics,
		validate: validation.New(),
	}
}

func respond(c fiber.Ctx, status int, session *Session) error {
	return c.Status(status).JSON(SessionResponse{
		SessionID: session.ID,
		Namespace: session.Namespace,
		State:     session.Controller.State(),
	})
}

func (h *Handlers) observe(step models.StepKey, err error) {
	if h.metrics != nil {
		h.metrics.ObserveTransition(step, err)
	}
}

func (h *Handlers) CreateSession(c fiber.Ctx) error {
	var req CreateRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := h.manager.Create(c.Context(), req)
	if err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusCreated, session)
}

func (h *Handlers) GetSession(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

func (h *Handlers) DeleteSession(c fiber.Ctx) error {
	if err := h.manager.Close(c.Context(), c.Params("id")); err != nil {
		return handleWizardError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) GetStep(c fiber.Ctx) error {
	session, step, err := h.sessionStep(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	state := session.Controller.State()

	payload := state.Payloads.Get(step)
	if payload == nil {
		payload, _ = models.NewPayload(step)
	}

	schema, err := validation.Schema(step)
	if err != nil {
		return handleWizardError(c, err)
	}

	def, _ := wizard.Definition(step)

	return c.JSON(StepResponse{
		Step:    step,
		Label:   def.Label,
		Payload: payload,
		Fields:  models.Fields(payload),
		Schema:  schema,
	})
}

// PutStep replaces a step payload with the raw JSON body.
func (h *Handlers) PutStep(c fiber.Ctx) error {
	session, step, err := h.sessionStep(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	body := c.Body()

	if result := validation.ValidateRaw(step, body); !result.IsValid() {
		return invalidFields(c, "payload does not match the step schema", result.FieldErrors)
	}

	payload, err := models.NewPayload(step)
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := json.Unmarshal(body, payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := session.Controller.SetPayload(c.Context(), payload); err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

// PatchFields applies ordered form field edits.
func (h *Handlers) PatchFields(c fiber.Ctx) error {
	session, step, err := h.sessionStep(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	var edits []models.FieldEdit
	if err := c.Bind().JSON(&edits); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Var(edits, "required,dive"); err != nil {
		return badRequest(c, err.Error())
	}

	if err := session.Controller.EditFields(c.Context(), step, edits); err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

func (h *Handlers) Proceed(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	step := session.Controller.State().ActiveStep

	err = session.Controller.Proceed(c.Context())
	h.observe(step, err)

	if err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

// CompleteStep submits an auto-advancing step through its own form.
func (h *Handlers) CompleteStep(c fiber.Ctx) error {
	session, step, err := h.sessionStep(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	if active := session.Controller.State().ActiveStep; active != step {
		return handleWizardError(c, wizard.ErrStepMismatch)
	}

	err = session.Controller.SubmitStep(c.Context())
	h.observe(step, err)

	if err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

func (h *Handlers) Back(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := session.Controller.Back(c.Context()); err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

func (h *Handlers) GoTo(c fiber.Ctx) error {
	session, step, err := h.sessionStep(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := session.Controller.GoTo(c.Context(), step); err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

func (h *Handlers) Reset(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := session.Controller.Reset(c.Context()); err != nil {
		return handleWizardError(c, err)
	}

	return respond(c, fiber.StatusOK, session)
}

// ClearNotifications acknowledges every pending notification.
func (h *Handlers) ClearNotifications(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	session.Controller.ClearNotifications()

	return respond(c, fiber.StatusOK, session)
}

func (h *Handlers) Roles(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	roles, err := session.Controller.Roles(c.Context())
	if err != nil {
		return handleWizardError(c, &wizard.TransitionError{Op: "load roles", Step: models.StepBaseInfo, Err: err})
	}

	return c.JSON(models.ListResponse[models.Role]{Data: roles})
}

func (h *Handlers) PaidTimeOff(c fiber.Ctx) error {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleWizardError(c, err)
	}

	pto, err := session.Controller.PaidTimeOff(c.Context())
	if err != nil {
		return handleWizardError(c, &wizard.TransitionError{Op: "load paid time off", Step: models.StepCompensation, Err: err})
	}

	return c.JSON(models.ListResponse[models.PaidTimeOff]{Data: pto})
}

func (h *Handlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"message":   "Roster wizard is healthy",
		"sessions":  h.manager.Len(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handlers) sessionStep(c fiber.Ctx) (*Session, models.StepKey, error) {
	session, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return nil, "", err
	}

	step, err := models.ParseStepKey(c.Params("step"))
	if err != nil {
		return nil, "", wizard.ErrUnknownStep
	}

	return session, step, nil
}

// Register mounts the session routes, /health and, when metrics are enabled,
// /metrics.
func (h *Handlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	if h.metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))
	}

	s := router.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Get("/:id", h.GetSession)
	s.Delete("/:id", h.DeleteSession)
	s.Get("/:id/steps/:step", h.GetStep)
	s.Put("/:id/steps/:step", h.PutStep)
	s.Patch("/:id/steps/:step/fields", h.PatchFields)
	s.Post("/:id/steps/:step/complete", h.CompleteStep)
	s.Post("/:id/proceed", h.Proceed)
	s.Post("/:id/back", h.Back)
	s.Post("/:id/goto/:step", h.GoTo)
	s.Post("/:id/reset", h.Reset)
	s.Delete("/:id/notifications", h.ClearNotifications)
	s.Get("/:id/options/roles", h.Roles)
	s.Get("/:id/options/paid-time-off", h.PaidTimeOff)
}
