package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/roster/pkg/channels/gochannel"
	"github.com/dukex/roster/pkg/eventbus"
	"github.com/dukex/roster/pkg/events"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence/file"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, bus eventbus.EventBus) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAPI(logger, file.NewPersistence(t.TempDir()), bus, "").App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Roster API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	for _, path := range []string{"/livez", "/health"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)

		_ = resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAPI_CreateEmployeePublishesEvent(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub, logger)
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan *events.EmployeeCreated, 1)

	require.NoError(t, bus.Handle(events.EmployeeCreatedEvent, func(_ context.Context, event any) error {
		if created, ok := event.(*events.EmployeeCreated); ok {
			received <- created
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	app := setupTestApp(t, bus)

	body, err := json.Marshal(models.PersonPayload{FirstName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/employees", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var employee models.Employee
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&employee))

	select {
	case event := <-received:
		assert.Equal(t, employee.ID, event.EmployeeID)
		assert.Equal(t, "ada@example.com", event.Email)
	case <-time.After(5 * time.Second):
		t.Fatal("employee.created was not published")
	}
}
