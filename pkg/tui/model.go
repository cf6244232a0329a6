// Package tui renders the onboarding wizard in a terminal.
//
// It follows the bubbletea architecture: key presses become messages, Update
// turns them into controller calls run as commands, and View renders the
// controller state. Form inputs are rebuilt whenever the active step changes.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/wizard"
)

const refreshInterval = time.Second

// opResultMsg carries the outcome of a controller call run as a command.
type opResultMsg struct {
	op  string
	err error
}

type refreshMsg struct{}

type fieldInput struct {
	field models.Field
	input textinput.Model
}

// Model is the bubbletea model of one wizard session.
type Model struct {
	ctx        context.Context
	controller *wizard.Controller

	step    models.StepKey
	entity  string
	inputs  []fieldInput
	focus   int
	busy    bool
	status  string
	err     error
	width   int
	done    bool
	quitted bool
}

// New returns a model driving controller. ctx bounds every backend call.
func New(ctx context.Context, controller *wizard.Controller) *Model {
	m := &Model{ctx: ctx, controller: controller}
	m.load(controller.State())

	return m
}

// Completed reports whether the onboarding was finished in this session.
func (m *Model) Completed() bool {
	return m.done
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, refresh())
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

		return m, nil

	case refreshMsg:
		state := m.controller.State()
		if !m.busy && (state.ActiveStep != m.step || entityOf(state) != m.entity) {
			m.load(state)
		}

		return m, refresh()

	case opResultMsg:
		return m.handleResult(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitted = true

		return m, tea.Quit
	}

	if m.done {
		return m, tea.Quit
	}

	if m.busy {
		return m, nil
	}

	step, edits := m.step, m.edits()

	switch msg.String() {
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "enter":
		return m, m.run("submit", func() error { return m.submit(step, edits) })
	case "ctrl+b":
		return m, m.run("back", func() error {
			if err := m.commit(step, edits); err != nil {
				return err
			}

			return m.controller.Back(m.ctx)
		})
	case "ctrl+n":
		next, ok := wizard.NextStep(step)
		if !ok {
			return m, nil
		}

		return m, m.run("goto", func() error {
			if err := m.commit(step, edits); err != nil {
				return err
			}

			return m.controller.GoTo(m.ctx, next)
		})
	case "ctrl+r":
		return m, m.run("reset", func() error { return m.controller.Reset(m.ctx) })
	case "ctrl+l":
		m.controller.ClearNotifications()

		return m, nil
	}

	return m.updateFocused(msg)
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return m, nil
	}

	var cmd tea.Cmd

	m.inputs[m.focus].input, cmd = m.inputs[m.focus].input.Update(msg)

	return m, cmd
}

// run executes fn outside of Update and reports back with an opResultMsg.
func (m *Model) run(op string, fn func() error) tea.Cmd {
	m.busy = true
	m.status = ""
	m.err = nil

	return func() tea.Msg {
		return opResultMsg{op: op, err: fn()}
	}
}

func (m *Model) handleResult(msg opResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	state := m.controller.State()

	switch {
	case msg.err == nil:
		m.status = statusFor(msg.op, state)
	case wizard.IsValidationError(msg.err):
		m.status = "Please fix the highlighted fields"
	default:
		m.err = msg.err
	}

	if state.Completed {
		m.done = true
		m.status = "Onboarding completed. Press any key to exit."

		return m, nil
	}

	// keep what was typed when the step did not change
	if msg.err != nil && state.ActiveStep == m.step {
		return m, nil
	}

	m.load(state)

	return m, m.focusCmd()
}

func statusFor(op string, state wizard.State) string {
	switch op {
	case "reset":
		return "Draft discarded"
	case "submit":
		def, _ := wizard.Definition(state.ActiveStep)

		return "Continue with " + def.Label
	default:
		return ""
	}
}

// submit writes the edited fields and submits the active step.
func (m *Model) submit(step models.StepKey, edits []models.FieldEdit) error {
	if err := m.commit(step, edits); err != nil {
		return err
	}

	def, _ := wizard.Definition(step)
	if def.AutoAdvances {
		return m.controller.SubmitStep(m.ctx)
	}

	return m.controller.Proceed(m.ctx)
}

// edits lists the inputs whose value changed.
func (m *Model) edits() []models.FieldEdit {
	var edits []models.FieldEdit

	for _, fi := range m.inputs {
		if fi.field.ReadOnly || fi.input.Value() == fi.field.Value {
			continue
		}

		edits = append(edits, models.FieldEdit{Field: fi.field.Name, Value: fi.input.Value()})
	}

	return edits
}

// commit writes edits to the active step.
func (m *Model) commit(step models.StepKey, edits []models.FieldEdit) error {
	if len(edits) == 0 {
		return nil
	}

	err := m.controller.EditFields(m.ctx, step, edits)
	if errors.Is(err, wizard.ErrStepLocked) {
		return nil
	}

	return err
}

// load rebuilds the inputs from the payload of the active step.
func (m *Model) load(state wizard.State) {
	m.step = state.ActiveStep
	m.entity = entityOf(state)

	payload := state.Payloads.Get(state.ActiveStep)
	if payload == nil {
		payload, _ = models.NewPayload(state.ActiveStep)
	}

	fields := models.Fields(payload)
	m.inputs = make([]fieldInput, 0, len(fields))

	for _, field := range fields {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = field.Label
		input.CharLimit = 256
		input.SetValue(field.Value)

		m.inputs = append(m.inputs, fieldInput{field: field, input: input})
	}

	m.focus = -1
	m.moveFocus(1)
}

func (m *Model) focusCmd() tea.Cmd {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return nil
	}

	return m.inputs[m.focus].input.Focus()
}

// moveFocus focuses the next editable input in direction dir, wrapping around.
func (m *Model) moveFocus(dir int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}

	if m.focus >= 0 && m.focus < len(m.inputs) {
		m.inputs[m.focus].input.Blur()
	}

	next := m.focus

	for range m.inputs {
		next = (next + dir + len(m.inputs)) % len(m.inputs)
		if !m.inputs[next].field.ReadOnly {
			m.focus = next

			return m.inputs[next].input.Focus()
		}
	}

	m.focus = -1

	return nil
}

func entityOf(state wizard.State) string {
	if state.EntityID == nil {
		return ""
	}

	return *state.EntityID
}
