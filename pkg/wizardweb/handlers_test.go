package wizardweb_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence/file"
	"github.com/dukex/roster/pkg/services"
	"github.com/dukex/roster/pkg/web"
	"github.com/dukex/roster/pkg/wizardweb"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startBackend runs the reference employee backend and returns a client for it.
func startBackend(t *testing.T) (*gateway.Client, *services.Employee) {
	t.Helper()

	service := services.NewEmployee(file.NewPersistence(t.TempDir()), nil, discardLogger())
	require.NoError(t, service.SeedCatalogs(t.Context(),
		[]models.Role{{ID: "role-engineer", Name: "Engineer"}},
		[]models.PaidTimeOff{{ID: "vacation", Name: "Vacation", DaysPerYear: 20}},
	))

	app := fiber.New(fiber.Config{Immutable: true})
	web.NewAPIHandlers(service).Register(app)

	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)

	client, err := gateway.NewClient(server.URL)
	require.NoError(t, err)

	return client, service
}

type host struct {
	app     *fiber.App
	manager *wizardweb.Manager
	metrics *wizardweb.Metrics
	backend *draft.MemoryBackend
	service *services.Employee
}

func newHost(t *testing.T) *host {
	t.Helper()

	client, service := startBackend(t)

	h := &host{
		metrics: wizardweb.NewMetrics("roster-wizard-test"),
		backend: draft.NewMemoryBackend(),
		service: service,
	}

	manager, err := wizardweb.NewManager(wizardweb.ManagerConfig{
		Backend: h.backend,
		Gateway: client,
		Metrics: h.metrics,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	t.Cleanup(func() { manager.Shutdown(t.Context()) })

	h.manager = manager
	h.app = fiber.New()
	wizardweb.NewHandlers(manager, h.metrics).Register(h.app)

	return h
}

func (h *host) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func (h *host) session(t *testing.T, method, path string, body any, wantStatus int) wizardweb.SessionResponse {
	t.Helper()

	status, data := h.do(t, method, path, body)
	require.Equal(t, wantStatus, status, string(data))

	var resp wizardweb.SessionResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	return resp
}

func problemOf(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(data, &problem), string(data))

	return problem
}

const adaBaseInfo = `{
	"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
	"phoneNumber": "+44 20 7946 0958", "gender": "Female", "birthday": "1815-12-10",
	"roleId": "role-engineer", "employmentType": "Employee", "employmentDate": "2024-01-15",
	"maritalStatus": "Married", "nationalId": "AL-1815", "taxPayerNumber": "TP-1815"
}`

const adaAddress = `{
	"address": "12 St James's Square", "city": "London", "state": "England",
	"country": "United Kingdom", "postalCode": "SW1Y 4JH"
}`

func TestHandlers_CreateAndGetSession(t *testing.T) {
	t.Parallel()

	h := newHost(t)

	created := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated)
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, created.SessionID, created.Namespace)
	assert.Equal(t, models.StepBaseInfo, created.State.ActiveStep)
	require.Len(t, created.State.Steps, 7)
	assert.False(t, created.State.Steps[3].Unlocked)

	fetched := h.session(t, http.MethodGet, "/sessions/"+created.SessionID, nil, http.StatusOK)
	assert.Equal(t, created.SessionID, fetched.SessionID)

	status, data := h.do(t, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "session_not_found", problemOf(t, data)["type"])

	status, _ = h.do(t, http.MethodPost, "/sessions", map[string]string{"namespace": "tab:1"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodDelete, "/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, h.manager.Len())
}

func TestHandlers_ProceedRejectsInvalidStep(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID

	status, data := h.do(t, http.MethodPost, "/sessions/"+id+"/proceed", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	problem := problemOf(t, data)
	assert.Equal(t, "validation_error", problem["type"])
	assert.Contains(t, problem["errors"], "firstName")

	state := h.session(t, http.MethodGet, "/sessions/"+id, nil, http.StatusOK).State
	assert.Equal(t, models.StepBaseInfo, state.ActiveStep)
	assert.Contains(t, state.FieldErrors, "email")
}

func TestHandlers_PutStepChecksSchema(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID

	status, data := h.do(t, http.MethodPut, "/sessions/"+id+"/steps/base_info", `{"firstName": 42, "nickname": "Ada"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	problem := problemOf(t, data)
	assert.Contains(t, problem["errors"], "firstName")
	assert.Contains(t, problem["errors"], "nickname")

	status, _ = h.do(t, http.MethodPut, "/sessions/"+id+"/steps/payroll", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, data = h.do(t, http.MethodPut, "/sessions/"+id+"/steps/compensation", `{"payType": "Salary"}`)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "step_locked", problemOf(t, data)["type"])
}

func TestHandlers_GoToLockedStep(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID

	status, data := h.do(t, http.MethodPost, "/sessions/"+id+"/goto/tax_info", nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "step_locked", problemOf(t, data)["type"])

	state := h.session(t, http.MethodGet, "/sessions/"+id, nil, http.StatusOK).State
	assert.Equal(t, models.StepBaseInfo, state.ActiveStep)
	assert.NotEmpty(t, state.Notifications)

	state = h.session(t, http.MethodPost, "/sessions/"+id+"/goto/bank_account", nil, http.StatusOK).State
	assert.Equal(t, models.StepBankAccount, state.ActiveStep)

	state = h.session(t, http.MethodPost, "/sessions/"+id+"/back", nil, http.StatusOK).State
	assert.Equal(t, models.StepAddress, state.ActiveStep)

	status, _ = h.do(t, http.MethodPost, "/sessions/"+id+"/goto/payroll", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	state = h.session(t, http.MethodDelete, "/sessions/"+id+"/notifications", nil, http.StatusOK).State
	assert.Empty(t, state.Notifications)
}

func TestHandlers_StepSurvivesLaterRequests(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID

	h.session(t, http.MethodPost, "/sessions/"+id+"/goto/address", nil, http.StatusOK)

	status, _ := h.do(t, http.MethodPost, "/sessions/"+id+"/proceed", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	for range 20 {
		status, _ := h.do(t, http.MethodPost, "/sessions/"+id+"/goto/xxxxxxx", nil)
		require.Equal(t, http.StatusBadRequest, status)
	}

	state := h.session(t, http.MethodGet, "/sessions/"+id, nil, http.StatusOK).State
	assert.Equal(t, models.StepAddress, state.ActiveStep)

	status, data := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `step="address"`)
}

func TestHandlers_FieldCascade(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID

	h.session(t, http.MethodPut, "/sessions/"+id+"/steps/address", adaAddress, http.StatusOK)

	state := h.session(t, http.MethodPatch, "/sessions/"+id+"/steps/address/fields", []models.FieldEdit{
		{Field: "country", Value: "France"},
	}, http.StatusOK).State

	address, ok := state.Payloads.Get(models.StepAddress).(*models.Address)
	require.True(t, ok)
	assert.Equal(t, "France", address.Country)
	assert.Empty(t, address.State)
	assert.Empty(t, address.City)

	status, _ := h.do(t, http.MethodPatch, "/sessions/"+id+"/steps/address/fields", []models.FieldEdit{{Field: "planet", Value: "Mars"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodPatch, "/sessions/"+id+"/steps/address/fields", []models.FieldEdit{{Value: "x"}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandlers_GetStep(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID

	status, data := h.do(t, http.MethodGet, "/sessions/"+id+"/steps/bank_account", nil)
	require.Equal(t, http.StatusOK, status)

	var step struct {
		Step   models.StepKey `json:"step"`
		Label  string         `json:"label"`
		Fields []models.Field `json:"fields"`
		Schema map[string]any `json:"schema"`
	}
	require.NoError(t, json.Unmarshal(data, &step))
	assert.Equal(t, "Bank Account", step.Label)
	assert.NotEmpty(t, step.Fields)
	assert.Equal(t, "object", step.Schema["type"])
}

func TestHandlers_FullOnboarding(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	id := h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated).SessionID
	base := "/sessions/" + id

	status, data := h.do(t, http.MethodGet, base+"/options/roles", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "role-engineer")

	h.session(t, http.MethodPut, base+"/steps/base_info", adaBaseInfo, http.StatusOK)
	h.session(t, http.MethodPost, base+"/proceed", nil, http.StatusOK)
	h.session(t, http.MethodPut, base+"/steps/address", adaAddress, http.StatusOK)

	state := h.session(t, http.MethodPost, base+"/proceed", nil, http.StatusOK).State
	require.NotNil(t, state.EntityID)
	assert.Equal(t, models.StepBankAccount, state.ActiveStep)

	entityID := *state.EntityID

	h.session(t, http.MethodPut, base+"/steps/bank_account",
		`{"bankName": "Coutts", "accountName": "Ada Lovelace", "accountNumber": "12345678", "currency": "GBP", "countryCode": "GB"}`,
		http.StatusOK)

	state = h.session(t, http.MethodPost, base+"/proceed", nil, http.StatusOK).State
	assert.Equal(t, models.StepCompensation, state.ActiveStep)

	status, _ = h.do(t, http.MethodPost, base+"/proceed", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, data = h.do(t, http.MethodGet, base+"/options/paid-time-off", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "vacation")

	h.session(t, http.MethodPut, base+"/steps/compensation",
		`{"payType": "Salary", "amount": 5000, "currency": "GBP", "paidTimeOffIds": ["vacation"]}`, http.StatusOK)

	status, _ = h.do(t, http.MethodPost, base+"/steps/benefits/complete", nil)
	assert.Equal(t, http.StatusConflict, status)

	h.session(t, http.MethodPost, base+"/steps/compensation/complete", nil, http.StatusOK)
	h.session(t, http.MethodPut, base+"/steps/pay_schedule", `{"frequency": "monthly", "firstPayDate": "2024-02-01"}`, http.StatusOK)
	h.session(t, http.MethodPost, base+"/steps/pay_schedule/complete", nil, http.StatusOK)
	h.session(t, http.MethodPut, base+"/steps/benefits", `{"healthPlan": "basic", "retirementContribution": 5, "dependents": 0}`, http.StatusOK)
	h.session(t, http.MethodPost, base+"/steps/benefits/complete", nil, http.StatusOK)
	h.session(t, http.MethodPut, base+"/steps/tax_info", `{"filingStatus": "single", "allowances": 1}`, http.StatusOK)

	state = h.session(t, http.MethodPost, base+"/proceed", nil, http.StatusOK).State
	assert.True(t, state.Completed)
	assert.Empty(t, h.backend.Keys())

	employee, err := h.service.Get(t.Context(), entityID)
	require.NoError(t, err)
	assert.Equal(t, "female", employee.Gender)
	assert.Equal(t, "London", employee.City)
	assert.InDelta(t, 5000.0, employee.Salary, 0.001)
	assert.Equal(t, []string{"vacation"}, employee.PaidTimeOffIDs)
	assert.Equal(t, "monthly", employee.PayFrequency)
	assert.Equal(t, "single", employee.FilingStatus)

	accounts, err := h.service.FilterBankAccounts(t.Context(), models.BankAccountFilter{PersonID: entityID})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "United Kingdom", accounts[0].Country)

	status, data = h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "roster_wizard_onboardings_completed_total")
	assert.Contains(t, string(data), `roster_gateway_requests_total{op="create_employee",service="roster-wizard-test",status="ok"} 1`)
}

func TestHandlers_EditExistingEmployee(t *testing.T) {
	t.Parallel()

	h := newHost(t)

	employee, err := h.service.Create(t.Context(), models.PersonPayload{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Gender: "female",
	})
	require.NoError(t, err)

	created := h.session(t, http.MethodPost, "/sessions", map[string]string{"entity_id": employee.ID}, http.StatusCreated)
	require.NotNil(t, created.State.EntityID)
	assert.Equal(t, employee.ID, *created.State.EntityID)

	baseInfo, ok := created.State.Payloads.Get(models.StepBaseInfo).(*models.BaseInfo)
	require.True(t, ok)
	assert.Equal(t, "Grace", baseInfo.FirstName)
	assert.Equal(t, "Female", baseInfo.Gender)

	state := h.session(t, http.MethodPost, "/sessions/"+created.SessionID+"/goto/tax_info", nil, http.StatusOK).State
	assert.Equal(t, models.StepTaxInfo, state.ActiveStep)

	status, _ := h.do(t, http.MethodPost, "/sessions", map[string]string{"entity_id": "missing"})
	require.Equal(t, http.StatusCreated, status)
}

func TestHandlers_Health(t *testing.T) {
	t.Parallel()

	h := newHost(t)
	h.session(t, http.MethodPost, "/sessions", nil, http.StatusCreated)

	status, data := h.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"sessions":1`)
}
