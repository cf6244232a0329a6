package wizardweb

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/wizard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus series of a wizard host. Each Metrics owns its
// registry so several hosts can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive      prometheus.Gauge
	Transitions         *prometheus.CounterVec
	OnboardingsComplete prometheus.Counter
	GatewayRequests     *prometheus.CounterVec
	GatewayDuration     *prometheus.HistogramVec
}

func NewMetrics(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "roster_wizard_sessions_active",
			Help:        "Number of open wizard sessions",
			ConstLabels: labels,
		}),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "roster_wizard_transitions_total",
				Help:        "Step transitions by step and outcome",
				ConstLabels: labels,
			},
			[]string{"step", "result"},
		),
		OnboardingsComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "roster_wizard_onboardings_completed_total",
			Help:        "Number of onboardings that reached the final step",
			ConstLabels: labels,
		}),
		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "roster_gateway_requests_total",
				Help:        "Employee backend calls by operation and status",
				ConstLabels: labels,
			},
			[]string{"op", "status"},
		),
		GatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "roster_gateway_request_duration_seconds",
				Help:        "Histogram of employee backend latency",
				ConstLabels: labels,
				Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(
		m.SessionsActive,
		m.Transitions,
		m.OnboardingsComplete,
		m.GatewayRequests,
		m.GatewayDuration,
	)

	return m
}

// Registry exposes the registry, e.g. to gather in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts the outcome of a step action.
func (m *Metrics) ObserveTransition(step models.StepKey, err error) {
	m.Transitions.WithLabelValues(string(step), resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case wizard.IsValidationError(err):
		return "invalid"
	default:
		return "error"
	}
}

// InstrumentGateway wraps gw so every call is counted and timed.
func InstrumentGateway(gw gateway.Gateway, m *Metrics) gateway.Gateway {
	return &instrumentedGateway{next: gw, metrics: m}
}

type instrumentedGateway struct {
	next    gateway.Gateway
	metrics *Metrics
}

func (g *instrumentedGateway) observe(op string, start time.Time, err error) {
	status := "ok"

	if err != nil {
		status = "error"

		var gatewayErr *gateway.Error
		if errors.As(err, &gatewayErr) && gatewayErr.StatusCode != 0 {
			status = strconv.Itoa(gatewayErr.StatusCode)
		}
	}

	g.metrics.GatewayRequests.WithLabelValues(op, status).Inc()
	g.metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (g *instrumentedGateway) CreateEmployee(ctx context.Context, person models.PersonPayload) (*models.Employee, error) {
	start := time.Now()
	employee, err := g.next.CreateEmployee(ctx, person)
	g.observe("create_employee", start, err)

	return employee, err
}

func (g *instrumentedGateway) UpdateEmployee(ctx context.Context, id string, person models.PersonPayload) (*models.Employee, error) {
	start := time.Now()
	employee, err := g.next.UpdateEmployee(ctx, id, person)
	g.observe("update_employee", start, err)

	return employee, err
}

func (g *instrumentedGateway) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	start := time.Now()
	employee, err := g.next.GetEmployee(ctx, id)
	g.observe("get_employee", start, err)

	return employee, err
}

func (g *instrumentedGateway) DeleteEmployee(ctx context.Context, id string) error {
	start := time.Now()
	err := g.next.DeleteEmployee(ctx, id)
	g.observe("delete_employee", start, err)

	return err
}

func (g *instrumentedGateway) CreateBankAccount(ctx context.Context, employeeID string, account models.BankAccountRequest) (*models.BankAccount, error) {
	start := time.Now()
	created, err := g.next.CreateBankAccount(ctx, employeeID, account)
	g.observe("create_bank_account", start, err)

	return created, err
}

func (g *instrumentedGateway) FilterBankAccounts(ctx context.Context, personID string) ([]models.BankAccount, error) {
	start := time.Now()
	accounts, err := g.next.FilterBankAccounts(ctx, personID)
	g.observe("filter_bank_accounts", start, err)

	return accounts, err
}

func (g *instrumentedGateway) FilterPaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error) {
	start := time.Now()
	pto, err := g.next.FilterPaidTimeOff(ctx, filter)
	g.observe("filter_paid_time_off", start, err)

	return pto, err
}

func (g *instrumentedGateway) FilterRoles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error) {
	start := time.Now()
	roles, err := g.next.FilterRoles(ctx, filter)
	g.observe("filter_roles", start, err)

	return roles, err
}
