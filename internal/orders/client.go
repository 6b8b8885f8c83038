package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/quickplate/ordercore/pkg/config"
	"github.com/quickplate/ordercore/pkg/enums"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
)

const errorBodyReadLimit int64 = 2048

var errOrderLoggerRequired = errors.New("order api logger is required")

// Client talks to the external order API. Calls run through a circuit
// breaker so a struggling order service sheds load instead of piling
// up timeouts.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the order API client from configuration.
func NewClient(cfg config.OrderAPIConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errOrderLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("order api base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "order-api",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		breaker:    breaker,
		logger:     logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Create submits the order-creation request.
func (c *Client) Create(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, c.errorFromResponse(resp, pkgerrors.CodeDependency, "order api unavailable")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.errorFromResponse(resp, pkgerrors.CodeOrderCreation, "order creation rejected")
	}

	var out CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode create order response")
	}
	if out.Order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order api returned no order id")
	}
	return &out, nil
}

// Fetch retrieves the authoritative snapshot for the order. Used to
// reconcile local state after a push channel reconnect.
func (c *Client) Fetch(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	resp, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, c.errorFromResponse(resp, pkgerrors.CodeNotFound, "order not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp, pkgerrors.CodeDependency, "order fetch failed")
	}

	var out Order
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order snapshot")
	}
	return &out, nil
}

// AdvanceStatus asks the server to move the order to the given status.
// The server authors the actual transition; this only requests it.
func (c *Client) AdvanceStatus(ctx context.Context, orderID string, next enums.OrderStatus) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}

	body := struct {
		Status enums.OrderStatus `json:"status"`
	}{Status: next}
	resp, err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/status", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, c.errorFromResponse(resp, pkgerrors.CodeNotFound, "order not found")
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return nil, c.errorFromResponse(resp, pkgerrors.CodeStateConflict, "status transition rejected")
	default:
		return nil, c.errorFromResponse(resp, pkgerrors.CodeDependency, "status update failed")
	}

	var out Order
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode status update response")
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal order api request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order api request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		res, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if res.StatusCode >= http.StatusInternalServerError {
			// Count server errors against the breaker but hand the
			// response back so callers see the payload.
			return res, fmt.Errorf("order api status %d", res.StatusCode)
		}
		return res, nil
	})
	if err != nil {
		if resp != nil {
			return resp, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order api circuit open")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order api request")
	}
	return resp, nil
}

func (c *Client) errorFromResponse(resp *http.Response, code pkgerrors.Code, message string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	detail := strings.TrimSpace(string(raw))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error.Message != "" {
			detail = payload.Error.Message
		} else if payload.Message != "" {
			detail = payload.Message
		}
	}
	if detail == "" {
		detail = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return pkgerrors.Wrap(code, fmt.Errorf("status %d: %s", resp.StatusCode, detail), message)
}
