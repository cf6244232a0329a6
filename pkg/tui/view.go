package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dukex/roster/pkg/wizard"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	activeStepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)
	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)
	lockedStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().
			Width(24).
			Foreground(lipgloss.Color("#AAAAAA"))
	readOnlyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))
	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7BD88F"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

var levelStyles = map[wizard.Level]lipgloss.Style{
	wizard.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	wizard.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
	wizard.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
}

func (m *Model) View() string {
	if m.quitted {
		return ""
	}

	state := m.controller.State()

	sections := []string{
		titleStyle.Render("Employee onboarding"),
		renderSteps(state.Steps),
	}

	if m.done {
		sections = append(sections, statusStyle.Render(m.status))

		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, boxStyle.Render(m.renderForm(state)))

	if notes := renderNotifications(state.Notifications); notes != "" {
		sections = append(sections, notes)
	}

	switch {
	case m.err != nil:
		sections = append(sections, fieldErrorStyle.Render("Error: "+m.err.Error()))
	case m.busy || state.Submitting:
		sections = append(sections, helpStyle.Render("Saving..."))
	case state.Loading:
		sections = append(sections, helpStyle.Render("Loading employee data..."))
	case m.status != "":
		sections = append(sections, statusStyle.Render(m.status))
	}

	sections = append(sections, helpStyle.Render(m.help()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSteps(steps []wizard.StepStatus) string {
	rendered := make([]string, 0, len(steps))

	for i, step := range steps {
		label := fmt.Sprintf("%d %s", i+1, step.Label)
		if step.Filled {
			label += " ✓"
		}

		switch {
		case step.Active:
			rendered = append(rendered, activeStepStyle.Render(label))
		case !step.Unlocked:
			rendered = append(rendered, lockedStepStyle.Render(label))
		default:
			rendered = append(rendered, stepStyle.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) renderForm(state wizard.State) string {
	lines := make([]string, 0, len(m.inputs))

	for i, fi := range m.inputs {
		marker := "  "
		if i == m.focus {
			marker = "> "
		}

		value := fi.input.View()
		if fi.field.ReadOnly {
			value = readOnlyStyle.Render(fi.field.Value)
		}

		line := marker + labelStyle.Render(fi.field.Label) + value
		if msg, ok := state.FieldErrors[fi.field.Name]; ok {
			line += "  " + fieldErrorStyle.Render(msg)
		}

		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return helpStyle.Render("This step has no fields.")
	}

	return strings.Join(lines, "\n")
}

func renderNotifications(notifications []wizard.Notification) string {
	if len(notifications) == 0 {
		return ""
	}

	// newest last, at most three
	if len(notifications) > 3 {
		notifications = notifications[len(notifications)-3:]
	}

	lines := make([]string, 0, len(notifications))
	for _, n := range notifications {
		style, ok := levelStyles[n.Level]
		if !ok {
			style = helpStyle
		}

		lines = append(lines, style.Render("• "+n.Message))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) help() string {
	def, _ := wizard.Definition(m.step)

	submit := "enter: save and continue"
	if def.AutoAdvances {
		submit = "enter: save step"
	}

	return strings.Join([]string{
		submit,
		"tab/↓ ↑: move",
		"ctrl+b: back",
		"ctrl+n: next step",
		"ctrl+r: discard draft",
		"ctrl+l: clear messages",
		"esc: quit",
	}, " · ")
}
