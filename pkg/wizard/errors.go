package wizard

import (
	"errors"
	"fmt"

	"github.com/dukex/roster/pkg/models"
)

var (
	ErrStepLocked       = errors.New("complete previous steps first")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrAutoAdvanceStep  = errors.New("this step is completed by its own form")
	ErrWizardCompleted  = errors.New("onboarding is already completed")
	ErrStepMismatch     = errors.New("step is not the active step")
	ErrStaleTransition  = errors.New("the draft changed while the request was in flight")
	ErrEntityRequired   = errors.New("the employee has not been created yet")
	ErrUnknownStep      = errors.New("unknown wizard step")
	ErrNoFormForStep    = errors.New("step has no self-persisting form")
	ErrPayloadStepWrong = errors.New("payload does not belong to the step")
)

// ValidationError is returned when a step payload does not pass its validator.
type ValidationError struct {
	Step        models.StepKey
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s has %d invalid field(s)", e.Step, len(e.FieldErrors))
}

// TransitionError wraps a backend failure that aborted a step transition.
type TransitionError struct {
	Op   string
	Step models.StepKey
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s on step %s: %v", e.Op, e.Step, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// IsTransitionError reports whether err is a backend failure during a transition.
func IsTransitionError(err error) bool {
	var transitionErr *TransitionError

	return errors.As(err, &transitionErr)
}
