package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/otelhelper"
	"github.com/moogar0880/problems"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

// Client talks JSON over HTTP to the employee backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTracer enables a span per backend call.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the backend served at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tracer:     otelhelper.NoopTracer(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) CreateEmployee(ctx context.Context, person models.PersonPayload) (*models.Employee, error) {
	var employee models.Employee
	if err := c.do(ctx, "create_employee", http.MethodPost, "/employees", person, &employee); err != nil {
		return nil, err
	}

	return &employee, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, person models.PersonPayload) (*models.Employee, error) {
	var employee models.Employee
	if err := c.do(ctx, "update_employee", http.MethodPut, "/employees/"+url.PathEscape(id), person, &employee); err != nil {
		return nil, err
	}

	return &employee, nil
}

func (c *Client) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	if err := c.do(ctx, "get_employee", http.MethodGet, "/employees/"+url.PathEscape(id), nil, &employee); err != nil {
		return nil, err
	}

	return &employee, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	return c.do(ctx, "delete_employee", http.MethodDelete, "/employees/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateBankAccount(ctx context.Context, employeeID string, account models.BankAccountRequest) (*models.BankAccount, error) {
	var created models.BankAccount

	path := "/employees/" + url.PathEscape(employeeID) + "/create-bank-account"
	if err := c.do(ctx, "create_bank_account", http.MethodPost, path, account, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

func (c *Client) FilterBankAccounts(ctx context.Context, personID string) ([]models.BankAccount, error) {
	var list models.ListResponse[models.BankAccount]

	filter := models.BankAccountFilter{PersonID: personID}
	if err := c.do(ctx, "filter_bank_accounts", http.MethodPost, "/bank-accounts/filter", filter, &list); err != nil {
		return nil, err
	}

	return list.Data, nil
}

func (c *Client) FilterPaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error) {
	var list models.ListResponse[models.PaidTimeOff]
	if err := c.do(ctx, "filter_paid_time_off", http.MethodPost, "/paid-time-off/filter", filter, &list); err != nil {
		return nil, err
	}

	return list.Data, nil
}

func (c *Client) FilterRoles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error) {
	var list models.ListResponse[models.Role]
	if err := c.do(ctx, "filter_roles", http.MethodPost, "/roles/filter", filter, &list); err != nil {
		return nil, err
	}

	return list.Data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "gateway."+op,
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	defer span.End()

	fail := func(err *Error) error {
		otelhelper.SetError(span, err, attribute.Int("http.response.status_code", err.StatusCode))
		c.logger.ErrorContext(ctx, "backend call failed", "op", op, "status", err.StatusCode, "error", err)

		return err
	}

	var reqBody io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(&Error{Op: op, Method: method, Path: path, Err: fmt.Errorf("failed to encode request: %w", err)})
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fail(&Error{Op: op, Method: method, Path: path, Err: err})
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(&Error{Op: op, Method: method, Path: path, Err: err})
	}

	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(&Error{Op: op, Method: method, Path: path, StatusCode: resp.StatusCode, Err: err})
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fail(decodeProblem(op, method, path, resp.StatusCode, respBody))
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(&Error{
			Op: op, Method: method, Path: path, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("failed to decode response: %w", err),
		})
	}

	return nil
}

// decodeProblem turns an RFC 7807 body into an Error. Bodies that are not
// problem documents keep only the status code.
func decodeProblem(op, method, path string, status int, body []byte) *Error {
	gatewayErr := &Error{Op: op, Method: method, Path: path, StatusCode: status}

	var problem problems.Problem
	if err := json.Unmarshal(body, &problem); err == nil {
		gatewayErr.Title = problem.Title
		gatewayErr.Detail = problem.Detail
	}

	gatewayErr.Err = errors.New(http.StatusText(status))

	return gatewayErr
}
