// Package wizard implements the employee onboarding state machine: the step
// registry, navigation rules and the controller that decides when the backend
// employee is created, updated or finalized.
package wizard

import "github.com/dukex/roster/pkg/models"

// StepDefinition is the static registry entry of a step.
type StepDefinition struct {
	Key   models.StepKey
	Label string
	// AutoAdvances marks steps whose own form persists and advances the
	// wizard; hosts do not render a shared Proceed control for them.
	AutoAdvances bool
	Unlocked     func(entityID *string) bool
}

func alwaysUnlocked(*string) bool { return true }

func requiresEntity(entityID *string) bool {
	return entityID != nil && *entityID != ""
}

var registry = []StepDefinition{
	{Key: models.StepBaseInfo, Label: "Base Info", Unlocked: alwaysUnlocked},
	{Key: models.StepAddress, Label: "Location", Unlocked: alwaysUnlocked},
	{Key: models.StepBankAccount, Label: "Bank Account", Unlocked: alwaysUnlocked},
	{Key: models.StepCompensation, Label: "Compensation", AutoAdvances: true, Unlocked: requiresEntity},
	{Key: models.StepPaySchedule, Label: "Pay Schedule", AutoAdvances: true, Unlocked: requiresEntity},
	{Key: models.StepBenefits, Label: "Benefits", AutoAdvances: true, Unlocked: requiresEntity},
	{Key: models.StepTaxInfo, Label: "Tax Info", Unlocked: requiresEntity},
}

// Steps returns the registry in wizard order.
func Steps() []StepDefinition {
	steps := make([]StepDefinition, len(registry))
	copy(steps, registry)

	return steps
}

// Definition returns the registry entry of step.
func Definition(step models.StepKey) (StepDefinition, bool) {
	for _, def := range registry {
		if def.Key == step {
			return def, true
		}
	}

	return StepDefinition{}, false
}

// IsStepUnlocked reports whether step may be navigated to for the given entity.
func IsStepUnlocked(step models.StepKey, entityID *string) bool {
	def, ok := Definition(step)
	if !ok {
		return false
	}

	return def.Unlocked(entityID)
}

// NextStep returns the step after step, or false on the last step.
func NextStep(step models.StepKey) (models.StepKey, bool) {
	i := step.Index()
	if i < 0 || i+1 >= len(models.StepOrder) {
		return "", false
	}

	return models.StepOrder[i+1], true
}

// PrevStep returns the step before step, or false on the first step.
func PrevStep(step models.StepKey) (models.StepKey, bool) {
	i := step.Index()
	if i <= 0 {
		return "", false
	}

	return models.StepOrder[i-1], true
}
