package wizardweb_test

import (
	"errors"
	"testing"

	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/mocks"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/wizard"
	"github.com/dukex/roster/pkg/wizardweb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveTransition(t *testing.T) {
	t.Parallel()

	m := wizardweb.NewMetrics("test")

	m.ObserveTransition(models.StepAddress, nil)
	m.ObserveTransition(models.StepAddress, &wizard.ValidationError{Step: models.StepAddress})
	m.ObserveTransition(models.StepAddress, errors.New("boom"))
	m.ObserveTransition(models.StepAddress, nil)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("address", "ok")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("address", "invalid")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("address", "error")), 0)
}

func TestInstrumentGateway(t *testing.T) {
	t.Parallel()

	m := wizardweb.NewMetrics("test")
	gw := &mocks.MockGateway{}

	gw.On("GetEmployee", mock.Anything, "e1").Return(&models.Employee{ID: "e1"}, nil)
	gw.On("GetEmployee", mock.Anything, "missing").Return(nil, &gateway.Error{Op: "get employee", StatusCode: 404})
	gw.On("DeleteEmployee", mock.Anything, "e1").Return(errors.New("connection refused"))

	instrumented := wizardweb.InstrumentGateway(gw, m)

	employee, err := instrumented.GetEmployee(t.Context(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", employee.ID)

	_, err = instrumented.GetEmployee(t.Context(), "missing")
	require.True(t, gateway.IsNotFound(err))

	require.Error(t, instrumented.DeleteEmployee(t.Context(), "e1"))

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("get_employee", "ok")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("get_employee", "404")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("delete_employee", "error")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.GatewayDuration))

	gw.AssertExpectations(t)
}
