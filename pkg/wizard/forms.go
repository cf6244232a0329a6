package wizard

import (
	"context"
	"fmt"

	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/models"
)

// StepForm is a step form that persists its own data against the backend
// instead of going through Proceed.
type StepForm interface {
	Step() models.StepKey
	Save(ctx context.Context, entityID string, payload models.StepPayload) error
}

// CompensationForm saves pay and paid time off associations.
type CompensationForm struct {
	Gateway gateway.Gateway
}

func (CompensationForm) Step() models.StepKey { return models.StepCompensation }

func (f CompensationForm) Save(ctx context.Context, entityID string, payload models.StepPayload) error {
	comp, ok := payload.(*models.Compensation)
	if !ok {
		return fmt.Errorf("%w: expected compensation, got %T", ErrPayloadStepWrong, payload)
	}

	_, err := f.Gateway.UpdateEmployee(ctx, entityID, comp.Request())

	return err
}

// Options returns the paid time off catalog for the form's multi select.
func (f CompensationForm) Options(ctx context.Context) ([]models.PaidTimeOff, error) {
	return f.Gateway.FilterPaidTimeOff(ctx, models.CatalogFilter{})
}

// PayScheduleForm saves the pay frequency.
type PayScheduleForm struct {
	Gateway gateway.Gateway
}

func (PayScheduleForm) Step() models.StepKey { return models.StepPaySchedule }

func (f PayScheduleForm) Save(ctx context.Context, entityID string, payload models.StepPayload) error {
	schedule, ok := payload.(*models.PaySchedule)
	if !ok {
		return fmt.Errorf("%w: expected pay schedule, got %T", ErrPayloadStepWrong, payload)
	}

	_, err := f.Gateway.UpdateEmployee(ctx, entityID, schedule.Request())

	return err
}

// BenefitsForm saves plan enrollment.
type BenefitsForm struct {
	Gateway gateway.Gateway
}

func (BenefitsForm) Step() models.StepKey { return models.StepBenefits }

func (f BenefitsForm) Save(ctx context.Context, entityID string, payload models.StepPayload) error {
	benefits, ok := payload.(*models.Benefits)
	if !ok {
		return fmt.Errorf("%w: expected benefits, got %T", ErrPayloadStepWrong, payload)
	}

	_, err := f.Gateway.UpdateEmployee(ctx, entityID, benefits.Request())

	return err
}

// DefaultForms returns the self-persisting forms of every auto-advancing step.
func DefaultForms(gw gateway.Gateway) map[models.StepKey]StepForm {
	return map[models.StepKey]StepForm{
		models.StepCompensation: CompensationForm{Gateway: gw},
		models.StepPaySchedule:  PayScheduleForm{Gateway: gw},
		models.StepBenefits:     BenefitsForm{Gateway: gw},
	}
}
