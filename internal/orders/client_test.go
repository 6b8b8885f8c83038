package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickplate/ordercore/pkg/config"
	"github.com/quickplate/ordercore/pkg/enums"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.OrderAPIConfig{
		BaseURL:            baseURL,
		Timeout:            2 * time.Second,
		BreakerMaxFailures: 3,
		BreakerOpenFor:     time.Minute,
	}, testLogger())
	require.NoError(t, err)
	return client
}

func TestCreateSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "seller-1", req.SellerID)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CreateOrderResponse{
			Order: Order{ID: "ord-9", SellerID: req.SellerID, Status: enums.OrderStatusPending},
			Payment: &PaymentDirective{
				RequiresConfirmation: true,
				ConfirmationID:       "conf-1",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Create(context.Background(), CreateOrderRequest{
		SellerID: "seller-1",
		Total:    decimal.RequireFromString("28.59"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-9", resp.Order.ID)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, "conf-1", resp.Payment.ConfirmationID)
}

func TestCreateBusinessRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"message":"seller is closed"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Create(context.Background(), CreateOrderRequest{SellerID: "seller-1"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeOrderCreation, typed.Code())
}

func TestCreateServerErrorIsDependency(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"oops"}}`))
	}))
	defer server.Close()

	// A 5xx is an upstream outage, not a rejection of the order.
	client := newTestClient(t, server.URL)
	_, err := client.Create(context.Background(), CreateOrderRequest{SellerID: "seller-1"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestFetchSnapshot(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ord-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Order{ID: "ord-1", Status: enums.OrderStatusOutForDelivery})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	order, err := client.Fetch(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, order.Status)
}

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Fetch(context.Background(), "missing")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdvanceStatusConflict(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ord-1/status", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"order already delivered"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.AdvanceStatus(context.Background(), "ord-1", enums.OrderStatusPreparing)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(ctx, "ord-1")
		require.Error(t, err, "attempt %d", i+1)
	}

	// Threshold reached; the next call should short-circuit.
	_, err := client.Fetch(ctx, "ord-1")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}
