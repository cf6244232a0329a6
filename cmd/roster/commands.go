package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/tui"
	"github.com/dukex/roster/pkg/wizard"
)

func runOnboard(ctx context.Context, e *env, employeeID string) error {
	controller, err := wizard.NewController(ctx, wizard.Config{
		Gateway: e.gateway,
		Store:   e.store,
		Logger:  e.logger,
		OnComplete: func(ctx context.Context, entityID string) {
			e.logger.InfoContext(ctx, "onboarding completed", "employee_id", entityID)
		},
	})
	if err != nil {
		return err
	}

	if employeeID != "" {
		if err := controller.Open(ctx, employeeID); err != nil {
			return err
		}
	}

	model := tui.New(ctx, controller)

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("wizard terminated: %w", err)
	}

	if model.Completed() {
		fmt.Println("Onboarding completed.")
	}

	return nil
}

func showDraft(ctx context.Context, store *draft.Store, w io.Writer) error {
	d, err := store.Load(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(d)
}

func clearDraft(ctx context.Context, store *draft.Store, w io.Writer) error {
	if err := store.Clear(ctx); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Draft %s discarded.\n", store.Namespace())

	return err
}

// deleteEmployee removes the employee on the backend and discards the local
// draft when it was editing that employee. A missing employee still clears
// the draft.
func deleteEmployee(ctx context.Context, gw gateway.Gateway, store *draft.Store, id string, w io.Writer) error {
	err := gw.DeleteEmployee(ctx, id)
	if err != nil && !gateway.IsNotFound(err) {
		return err
	}

	if _, loadErr := store.Load(ctx); loadErr != nil {
		return loadErr
	}

	if store.EntityID() == id {
		if err := store.Clear(ctx); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "Draft %s discarded.\n", store.Namespace())
	}

	if gateway.IsNotFound(err) {
		_, err = fmt.Fprintf(w, "Employee %s was not found.\n", id)

		return err
	}

	_, err = fmt.Fprintf(w, "Employee %s deleted.\n", id)

	return err
}
