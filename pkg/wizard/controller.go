package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/otelhelper"
	"github.com/dukex/roster/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxNotifications = 20

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient user-visible message.
type Notification struct {
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Step    models.StepKey `json:"step,omitempty"`
	Time    time.Time      `json:"time"`
}

// StepStatus is the navigation view of one step.
type StepStatus struct {
	Key          models.StepKey `json:"key"`
	Label        string         `json:"label"`
	AutoAdvances bool           `json:"auto_advances"`
	Unlocked     bool           `json:"unlocked"`
	Active       bool           `json:"active"`
	Filled       bool           `json:"filled"`
}

// State is a point-in-time copy of the wizard, safe to hand to renderers.
type State struct {
	ActiveStep    models.StepKey      `json:"active_step"`
	EntityID      *string             `json:"entity_id,omitempty"`
	Payloads      models.StepPayloads `json:"step_payloads"`
	FieldErrors   map[string]string   `json:"field_errors,omitempty"`
	Steps         []StepStatus        `json:"steps"`
	Loading       bool                `json:"loading"`
	Submitting    bool                `json:"submitting"`
	Completed     bool                `json:"completed"`
	Notifications []Notification      `json:"notifications,omitempty"`
}

// Config holds the collaborators of a Controller. Gateway and Store are required.
type Config struct {
	Gateway    gateway.Gateway
	Store      *draft.Store
	Validators *validation.Registry
	Forms      map[models.StepKey]StepForm
	Logger     *slog.Logger
	Tracer     trace.Tracer
	// OnComplete runs after the final step was submitted and the draft cleared.
	OnComplete func(ctx context.Context, entityID string)
	// Notify receives every notification. It runs with the controller locked
	// and must not call back into it.
	Notify func(Notification)
	Clock  func() time.Time
}

type snapshot struct {
	entityID       string
	employee       *models.Employee
	accounts       []models.BankAccount
	accountsLoaded bool
}

type transitionRequest struct {
	step     models.StepKey
	epoch    uint64
	entityID string
	payloads models.StepPayloads
}

type transitionOutcome struct {
	createdID     string
	bankAccountID string
	completed     bool
}

// Controller drives one onboarding session. All methods are safe for
// concurrent use; backend calls run without holding the state lock.
type Controller struct {
	gateway    gateway.Gateway
	store      *draft.Store
	validators *validation.Registry
	forms      map[models.StepKey]StepForm
	logger     *slog.Logger
	tracer     trace.Tracer
	onComplete func(ctx context.Context, entityID string)
	notify     func(Notification)
	now        func() time.Time

	mu              sync.Mutex
	draft           models.WizardDraft
	fieldErrors     map[string]string
	completed       bool
	completedEntity string
	loading         int
	submitting      bool
	notifications   []Notification
	// epoch changes whenever the draft is replaced; generation additionally
	// changes with the active step. Results computed under an older value
	// are discarded.
	epoch      uint64
	generation uint64
	snapshot   *snapshot
}

// NewController loads the persisted draft and returns a controller positioned
// on its active step.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("wizard: gateway is required")
	}

	if cfg.Store == nil {
		return nil, errors.New("wizard: draft store is required")
	}

	c := &Controller{
		gateway:    cfg.Gateway,
		store:      cfg.Store,
		validators: cfg.Validators,
		forms:      cfg.Forms,
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
		onComplete: cfg.OnComplete,
		notify:     cfg.Notify,
		now:        cfg.Clock,
	}

	if c.validators == nil {
		c.validators = validation.NewRegistry()
	}

	if c.forms == nil {
		c.forms = DefaultForms(cfg.Gateway)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.logger = c.logger.With("namespace", cfg.Store.Namespace())

	if c.tracer == nil {
		c.tracer = otelhelper.NoopTracer()
	}

	if c.now == nil {
		c.now = time.Now
	}

	d, err := c.store.Load(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to load draft, starting empty", "error", err)
		c.notifyLocked(LevelWarning, "", "the saved draft could not be loaded")
	}

	c.draft = *d

	if !IsStepUnlocked(c.draft.ActiveStep, c.draft.EntityID) {
		c.logger.WarnContext(ctx, "draft points at a locked step", "step", c.draft.ActiveStep)
		c.draft.ActiveStep = models.StepBaseInfo
	}

	c.hydrate(ctx)

	return c, nil
}

// State returns a copy of the current wizard state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := State{
		ActiveStep:    c.draft.ActiveStep,
		Payloads:      clonePayloads(c.draft.Payloads),
		Loading:       c.loading > 0,
		Submitting:    c.submitting,
		Completed:     c.completed,
		Notifications: append([]Notification(nil), c.notifications...),
	}

	if c.draft.EntityID != nil {
		id := *c.draft.EntityID
		state.EntityID = &id
	} else if c.completed {
		id := c.completedEntity
		state.EntityID = &id
	}

	if len(c.fieldErrors) > 0 {
		state.FieldErrors = make(map[string]string, len(c.fieldErrors))
		for field, msg := range c.fieldErrors {
			state.FieldErrors[field] = msg
		}
	}

	for _, def := range registry {
		state.Steps = append(state.Steps, StepStatus{
			Key:          def.Key,
			Label:        def.Label,
			AutoAdvances: def.AutoAdvances,
			Unlocked:     def.Unlocked(c.draft.EntityID),
			Active:       def.Key == c.draft.ActiveStep,
			Filled:       c.draft.Payloads.Get(def.Key) != nil,
		})
	}

	return state
}

// ClearNotifications drops every pending notification.
func (c *Controller) ClearNotifications() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notifications = nil
}

// Proceed validates the active step and moves to the next one, creating or
// updating the employee where the step requires it. Steps that persist
// through their own form return ErrAutoAdvanceStep.
func (c *Controller) Proceed(ctx context.Context) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "wizard.proceed")
	defer span.End()

	c.mu.Lock()

	if err := c.checkSubmittableLocked(); err != nil {
		c.mu.Unlock()

		return err
	}

	step := c.draft.ActiveStep
	span.SetAttributes(attribute.String(otelhelper.StepKey, string(step)))

	if def, _ := Definition(step); def.AutoAdvances {
		c.mu.Unlock()

		return ErrAutoAdvanceStep
	}

	if err := c.validateLocked(step); err != nil {
		c.mu.Unlock()

		return err
	}

	if step == models.StepBaseInfo {
		c.advanceLocked(ctx, step)
		c.mu.Unlock()
		c.hydrate(ctx)

		return nil
	}

	req := transitionRequest{
		step:     step,
		epoch:    c.epoch,
		entityID: c.entityIDLocked(),
		payloads: clonePayloads(c.draft.Payloads),
	}

	if req.entityID == "" {
		if step != models.StepAddress {
			c.notifyLocked(LevelWarning, step, ErrEntityRequired.Error())
			c.mu.Unlock()

			return ErrEntityRequired
		}

		// creating the employee needs a complete Base Info, which may have
		// been emptied after leaving it
		if err := c.validateLocked(models.StepBaseInfo); err != nil {
			c.mu.Unlock()

			return err
		}
	}

	c.submitting = true
	c.mu.Unlock()

	outcome, err := c.transition(ctx, req)

	c.mu.Lock()
	c.submitting = false

	if err != nil {
		otelhelper.SetError(span, err)
		c.logger.ErrorContext(ctx, "step transition failed", "step", step, "error", err)
		c.notifyLocked(LevelError, step, err.Error())
		c.mu.Unlock()

		return err
	}

	if c.epoch != req.epoch {
		c.logger.WarnContext(ctx, "discarding transition result for a replaced draft", "step", step, "created_id", outcome.createdID)
		c.mu.Unlock()

		return ErrStaleTransition
	}

	c.snapshot = nil

	switch {
	case outcome.completed:
		c.completeLocked(ctx, req.entityID)
		c.mu.Unlock()

		if c.onComplete != nil {
			c.onComplete(ctx, req.entityID)
		}

		return nil
	case outcome.createdID != "":
		id := outcome.createdID
		c.draft.EntityID = &id
		span.SetAttributes(attribute.String(otelhelper.EntityIDKey, id))

		if err := c.store.SaveEntityID(ctx, id); err != nil {
			c.persistFailedLocked(ctx, err)
		}

		c.logger.InfoContext(ctx, "employee created", "entity_id", id)
		c.notifyLocked(LevelInfo, step, "employee created")
	case outcome.bankAccountID != "":
		if form := c.draft.Payloads.BankAccount; form != nil {
			updated := models.ClonePayload(form).(*models.BankAccountForm)
			updated.ID = outcome.bankAccountID
			c.setPayloadLocked(ctx, updated)
		}

		c.logger.InfoContext(ctx, "bank account created", "bank_account_id", outcome.bankAccountID)
	}

	if c.draft.ActiveStep == step {
		c.advanceLocked(ctx, step)
	}

	c.mu.Unlock()
	c.hydrate(ctx)

	return nil
}

func (c *Controller) transition(ctx context.Context, req transitionRequest) (transitionOutcome, error) {
	var outcome transitionOutcome

	switch req.step {
	case models.StepAddress:
		person := models.ComposePerson(req.payloads.BaseInfo, req.payloads.Address)

		if req.entityID == "" {
			employee, err := c.gateway.CreateEmployee(ctx, person)
			if err != nil {
				return outcome, &TransitionError{Op: "create employee", Step: req.step, Err: err}
			}

			if employee == nil || employee.ID == "" {
				return outcome, &TransitionError{Op: "create employee", Step: req.step, Err: errors.New("backend returned no employee id")}
			}

			outcome.createdID = employee.ID

			return outcome, nil
		}

		if _, err := c.gateway.UpdateEmployee(ctx, req.entityID, person); err != nil {
			return outcome, &TransitionError{Op: "update employee", Step: req.step, Err: err}
		}
	case models.StepBankAccount:
		form := req.payloads.BankAccount
		if form.ID != "" {
			return outcome, nil
		}

		account, err := c.gateway.CreateBankAccount(ctx, req.entityID, form.Request())
		if err != nil {
			return outcome, &TransitionError{Op: "create bank account", Step: req.step, Err: err}
		}

		if account != nil {
			outcome.bankAccountID = account.ID
		}
	case models.StepTaxInfo:
		if _, err := c.gateway.UpdateEmployee(ctx, req.entityID, models.ComposeFull(req.payloads)); err != nil {
			return outcome, &TransitionError{Op: "finalize employee", Step: req.step, Err: err}
		}

		outcome.completed = true
	default:
		return outcome, fmt.Errorf("%w: %s", ErrAutoAdvanceStep, req.step)
	}

	return outcome, nil
}

// SubmitStep validates the active auto-advancing step, lets its form persist
// the data and advances.
func (c *Controller) SubmitStep(ctx context.Context) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "wizard.submit_step")
	defer span.End()

	c.mu.Lock()

	if err := c.checkSubmittableLocked(); err != nil {
		c.mu.Unlock()

		return err
	}

	step := c.draft.ActiveStep
	span.SetAttributes(attribute.String(otelhelper.StepKey, string(step)))

	form, ok := c.forms[step]
	if !ok {
		c.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrNoFormForStep, step)
	}

	entityID := c.entityIDLocked()
	if entityID == "" {
		c.notifyLocked(LevelWarning, step, ErrEntityRequired.Error())
		c.mu.Unlock()

		return ErrEntityRequired
	}

	if err := c.validateLocked(step); err != nil {
		c.mu.Unlock()

		return err
	}

	payload := models.ClonePayload(c.draft.Payloads.Get(step))
	epoch := c.epoch
	c.submitting = true
	c.mu.Unlock()

	err := form.Save(ctx, entityID, payload)

	c.mu.Lock()
	c.submitting = false

	if err != nil {
		def, _ := Definition(step)
		err = &TransitionError{Op: "save " + def.Label, Step: step, Err: err}

		otelhelper.SetError(span, err)
		c.logger.ErrorContext(ctx, "step form failed to save", "step", step, "error", err)
		c.notifyLocked(LevelError, step, err.Error())
		c.mu.Unlock()

		return err
	}

	if c.epoch != epoch {
		c.mu.Unlock()

		return ErrStaleTransition
	}

	if c.draft.ActiveStep == step {
		c.completeStepLocked(ctx, step)
	}

	c.mu.Unlock()
	c.hydrate(ctx)

	return nil
}

// CompleteStep advances past an auto-advancing step whose form already
// persisted its data. The cached snapshot is dropped so later steps are
// derived from fresh backend data.
func (c *Controller) CompleteStep(ctx context.Context, step models.StepKey) error {
	c.mu.Lock()

	if err := c.checkSubmittableLocked(); err != nil {
		c.mu.Unlock()

		return err
	}

	if step != c.draft.ActiveStep {
		c.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrStepMismatch, step)
	}

	if def, _ := Definition(step); !def.AutoAdvances {
		c.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrNoFormForStep, step)
	}

	c.completeStepLocked(ctx, step)
	c.mu.Unlock()
	c.hydrate(ctx)

	return nil
}

// Back moves to the previous step. It is a no-op on the first step.
func (c *Controller) Back(ctx context.Context) error {
	c.mu.Lock()

	if c.completed {
		c.mu.Unlock()

		return ErrWizardCompleted
	}

	prev, ok := PrevStep(c.draft.ActiveStep)
	if !ok {
		c.mu.Unlock()

		return nil
	}

	c.setActiveLocked(ctx, prev)
	c.mu.Unlock()
	c.hydrate(ctx)

	return nil
}

// GoTo jumps to step. Locked steps are rejected with ErrStepLocked and the
// active step is left unchanged.
func (c *Controller) GoTo(ctx context.Context, step models.StepKey) error {
	if !step.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownStep, step)
	}

	c.mu.Lock()

	if c.completed {
		c.mu.Unlock()

		return ErrWizardCompleted
	}

	if !IsStepUnlocked(step, c.draft.EntityID) {
		c.notifyLocked(LevelWarning, step, ErrStepLocked.Error())
		c.mu.Unlock()

		return ErrStepLocked
	}

	if step != c.draft.ActiveStep {
		c.setActiveLocked(ctx, step)
	}

	c.mu.Unlock()
	c.hydrate(ctx)

	return nil
}

// SetPayload replaces the payload of its step and writes it through to the
// draft store.
func (c *Controller) SetPayload(ctx context.Context, payload models.StepPayload) error {
	if payload == nil {
		return errors.New("wizard: nil step payload")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditableLocked(payload.Step()); err != nil {
		return err
	}

	if payload.Step() == c.draft.ActiveStep {
		c.fieldErrors = nil
	}

	payload = models.ClonePayload(payload)
	c.reconcileAccountLocked(ctx, payload)

	return c.setPayloadLocked(ctx, payload)
}

// EditField changes a single form field of step.
func (c *Controller) EditField(ctx context.Context, step models.StepKey, field, value string) error {
	return c.EditFields(ctx, step, []models.FieldEdit{{Field: field, Value: value}})
}

// EditFields applies form field edits to the payload of step. Address edits
// follow the country, state, city cascade.
func (c *Controller) EditFields(ctx context.Context, step models.StepKey, edits []models.FieldEdit) error {
	if !step.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownStep, step)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditableLocked(step); err != nil {
		return err
	}

	current := c.draft.Payloads.Get(step)
	if current == nil {
		empty, err := models.NewPayload(step)
		if err != nil {
			return err
		}

		current = empty
	}

	updated, err := models.ApplyEdits(current, edits)
	if err != nil {
		return err
	}

	if step == c.draft.ActiveStep {
		for _, edit := range edits {
			delete(c.fieldErrors, edit.Field)
		}
	}

	c.reconcileAccountLocked(ctx, updated)

	return c.setPayloadLocked(ctx, updated)
}

// reconcileAccountLocked keeps the backend id of a bank account form only
// while the details sent to the backend are unchanged. Edited details have no
// backend account yet, so the next Proceed creates one.
func (c *Controller) reconcileAccountLocked(ctx context.Context, payload models.StepPayload) {
	form, ok := payload.(*models.BankAccountForm)
	if !ok {
		return
	}

	form.ID = ""

	prev := c.draft.Payloads.BankAccount
	if prev == nil || prev.ID == "" {
		return
	}

	if prev.Request() == form.Request() {
		form.ID = prev.ID

		return
	}

	c.logger.InfoContext(ctx, "bank account details changed", "bank_account_id", prev.ID)
	c.notifyLocked(LevelInfo, models.StepBankAccount, "bank account details changed, a new account will be created")
}

// Reset discards the draft and starts over on the first step.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replaceDraftLocked(models.NewWizardDraft())

	if err := c.store.Clear(ctx); err != nil {
		c.persistFailedLocked(ctx, err)

		return err
	}

	c.logger.InfoContext(ctx, "draft reset")
	c.notifyLocked(LevelInfo, "", "the draft was discarded")

	return nil
}

// Open switches the wizard to editing an existing employee. A draft of the
// same employee is resumed; any other draft is discarded and step data is
// fetched lazily as steps become active.
func (c *Controller) Open(ctx context.Context, entityID string) error {
	if entityID == "" {
		return errors.New("wizard: entity id is required")
	}

	c.mu.Lock()

	if c.completed || c.entityIDLocked() != entityID {
		d := models.NewWizardDraft()
		d.EntityID = &entityID
		c.replaceDraftLocked(d)

		if err := c.store.Reset(ctx, entityID); err != nil {
			c.persistFailedLocked(ctx, err)
		}

		c.logger.InfoContext(ctx, "editing employee", "entity_id", entityID)
	}

	c.mu.Unlock()
	c.hydrate(ctx)

	return nil
}

// Watch follows entity id changes of the draft store until ctx is done. When
// the draft starts pointing at another employee, the in-memory state is
// replaced by what the store now holds. The subscription is active when Watch
// returns; the returned channel is closed once the watcher stopped.
func (c *Controller) Watch(ctx context.Context) <-chan struct{} {
	changes, cancel := c.store.Watch()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case entityID, ok := <-changes:
				if !ok {
					return
				}

				c.entityChanged(ctx, entityID)
			}
		}
	}()

	return done
}

func (c *Controller) entityChanged(ctx context.Context, entityID string) {
	c.mu.Lock()

	if c.entityIDLocked() == entityID {
		c.mu.Unlock()

		return
	}

	d, err := c.store.Load(ctx)
	if err != nil || d.EntityID == nil && entityID != "" || d.EntityID != nil && *d.EntityID != entityID {
		fresh := models.NewWizardDraft()
		if entityID != "" {
			fresh.EntityID = &entityID
		}

		d = &fresh
	}

	if !IsStepUnlocked(d.ActiveStep, d.EntityID) {
		d.ActiveStep = models.StepBaseInfo
	}

	c.replaceDraftLocked(*d)
	c.logger.InfoContext(ctx, "draft entity changed", "entity_id", entityID)

	if entityID == "" {
		c.notifyLocked(LevelInfo, "", "the draft was reset elsewhere")
	} else {
		c.notifyLocked(LevelInfo, "", "the draft now edits employee "+entityID)
	}

	c.mu.Unlock()
	c.hydrate(ctx)
}

// Roles returns the role catalog for the Base Info role select.
func (c *Controller) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := c.gateway.FilterRoles(ctx, models.CatalogFilter{})
	if err != nil {
		c.mu.Lock()
		c.notifyLocked(LevelError, models.StepBaseInfo, "failed to load roles: "+err.Error())
		c.mu.Unlock()
	}

	return roles, err
}

// PaidTimeOff returns the paid time off catalog for the Compensation step.
func (c *Controller) PaidTimeOff(ctx context.Context) ([]models.PaidTimeOff, error) {
	form, ok := c.forms[models.StepCompensation].(CompensationForm)
	if !ok {
		form = CompensationForm{Gateway: c.gateway}
	}

	pto, err := form.Options(ctx)
	if err != nil {
		c.mu.Lock()
		c.notifyLocked(LevelError, models.StepCompensation, "failed to load paid time off types: "+err.Error())
		c.mu.Unlock()
	}

	return pto, err
}

// hydrate derives the payload of the active step from the employee snapshot
// when editing an existing employee and the step has no data yet.
func (c *Controller) hydrate(ctx context.Context) {
	c.mu.Lock()

	if c.completed || !c.draft.HasEntity() {
		c.mu.Unlock()

		return
	}

	step := c.draft.ActiveStep
	if c.draft.Payloads.Get(step) != nil {
		c.mu.Unlock()

		return
	}

	entityID := *c.draft.EntityID
	generation := c.generation

	fetched := &snapshot{entityID: entityID}
	if c.snapshot != nil && c.snapshot.entityID == entityID {
		*fetched = *c.snapshot
	}

	needAccounts := step == models.StepBankAccount && !fetched.accountsLoaded
	needEmployee := step != models.StepBankAccount && fetched.employee == nil

	if !needAccounts && !needEmployee {
		c.applySnapshotLocked(ctx, step, fetched)
		c.mu.Unlock()

		return
	}

	c.loading++
	c.mu.Unlock()

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "wizard.hydrate",
		attribute.String(otelhelper.StepKey, string(step)),
		attribute.String(otelhelper.EntityIDKey, entityID),
	)
	defer span.End()

	var err error

	if needEmployee {
		fetched.employee, err = c.gateway.GetEmployee(ctx, entityID)
	}

	if err == nil && needAccounts {
		fetched.accounts, err = c.gateway.FilterBankAccounts(ctx, entityID)
		fetched.accountsLoaded = err == nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading--

	if generation != c.generation {
		c.logger.DebugContext(ctx, "discarding stale employee data", "step", step, "entity_id", entityID)

		return
	}

	if err != nil {
		otelhelper.SetError(span, err)
		c.logger.WarnContext(ctx, "failed to load employee data", "step", step, "entity_id", entityID, "error", err)

		switch {
		case gateway.IsNotFound(err):
			c.notifyLocked(LevelWarning, step, "employee "+entityID+" was not found")
		case gateway.IsUnauthorized(err):
			c.notifyLocked(LevelWarning, step, "not authorized to load employee "+entityID)
		default:
			c.notifyLocked(LevelError, step, "failed to load employee data: "+err.Error())

			return
		}

		if c.draft.Payloads.Get(step) == nil {
			empty, _ := models.NewPayload(step)
			c.draft.Payloads.Set(empty)
		}

		return
	}

	c.snapshot = fetched
	c.applySnapshotLocked(ctx, step, fetched)
}

func (c *Controller) applySnapshotLocked(ctx context.Context, step models.StepKey, snap *snapshot) {
	if step != models.StepBankAccount && snap.employee == nil {
		return
	}

	// edits made while the fetch was outstanding win
	if c.draft.Payloads.Get(step) != nil {
		c.logger.DebugContext(ctx, "keeping edited step data", "step", step)

		return
	}

	payload, err := models.Decompose(step, snap.employee, snap.accounts)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to decompose employee", "step", step, "error", err)

		return
	}

	_ = c.setPayloadLocked(ctx, payload)
}

func (c *Controller) checkSubmittableLocked() error {
	if c.completed {
		return ErrWizardCompleted
	}

	if c.submitting {
		return ErrSubmitInFlight
	}

	return nil
}

func (c *Controller) checkEditableLocked(step models.StepKey) error {
	if c.completed {
		return ErrWizardCompleted
	}

	if !IsStepUnlocked(step, c.draft.EntityID) {
		return ErrStepLocked
	}

	return nil
}

func (c *Controller) validateLocked(step models.StepKey) error {
	result := c.validators.Validate(step, c.draft.Payloads.Get(step))
	if result.IsValid() {
		c.fieldErrors = nil

		return nil
	}

	c.fieldErrors = result.FieldErrors

	return &ValidationError{Step: step, FieldErrors: result.FieldErrors}
}

func (c *Controller) entityIDLocked() string {
	if c.draft.EntityID == nil {
		return ""
	}

	return *c.draft.EntityID
}

func (c *Controller) advanceLocked(ctx context.Context, step models.StepKey) {
	if next, ok := NextStep(step); ok {
		c.setActiveLocked(ctx, next)
	}
}

func (c *Controller) completeStepLocked(ctx context.Context, step models.StepKey) {
	c.snapshot = nil
	c.advanceLocked(ctx, step)
}

func (c *Controller) setActiveLocked(ctx context.Context, step models.StepKey) {
	c.draft.ActiveStep = step
	c.generation++
	c.fieldErrors = nil

	if err := c.store.SaveActiveStep(ctx, step); err != nil {
		c.persistFailedLocked(ctx, err)
	}
}

func (c *Controller) setPayloadLocked(ctx context.Context, payload models.StepPayload) error {
	c.draft.Payloads.Set(payload)

	if err := c.store.SavePayload(ctx, payload); err != nil {
		c.persistFailedLocked(ctx, err)

		return err
	}

	return nil
}

func (c *Controller) replaceDraftLocked(d models.WizardDraft) {
	c.draft = d
	c.completed = false
	c.completedEntity = ""
	c.fieldErrors = nil
	c.snapshot = nil
	c.epoch++
	c.generation++
}

func (c *Controller) completeLocked(ctx context.Context, entityID string) {
	c.replaceDraftLocked(models.NewWizardDraft())
	c.completed = true
	c.completedEntity = entityID

	if err := c.store.Clear(ctx); err != nil {
		c.persistFailedLocked(ctx, err)
	}

	c.logger.InfoContext(ctx, "onboarding completed", "entity_id", entityID)
	c.notifyLocked(LevelInfo, models.StepTaxInfo, "onboarding completed")
}

func (c *Controller) persistFailedLocked(ctx context.Context, err error) {
	c.logger.ErrorContext(ctx, "failed to persist draft", "error", err)
	c.notifyLocked(LevelError, c.draft.ActiveStep, "the draft could not be saved: "+err.Error())
}

func (c *Controller) notifyLocked(level Level, step models.StepKey, message string) {
	n := Notification{Level: level, Message: message, Step: step, Time: c.now()}

	c.notifications = append(c.notifications, n)
	if len(c.notifications) > maxNotifications {
		c.notifications = c.notifications[len(c.notifications)-maxNotifications:]
	}

	if c.notify != nil {
		c.notify(n)
	}
}

func clonePayloads(p models.StepPayloads) models.StepPayloads {
	var out models.StepPayloads

	for _, step := range models.StepOrder {
		if payload := p.Get(step); payload != nil {
			out.Set(models.ClonePayload(payload))
		}
	}

	return out
}
