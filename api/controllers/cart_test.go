package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cartsvc "github.com/quickplate/ordercore/internal/cart"
	"github.com/quickplate/ordercore/pkg/logger"
)

func newCartTestService(t *testing.T) cartsvc.Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := cartsvc.NewService(cartsvc.NewCart(), logg)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	return svc
}

func decodeCartSnapshot(t *testing.T, body io.Reader) cartsvc.Snapshot {
	t.Helper()
	var envelope struct {
		Data cartsvc.Snapshot `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestCartAddItemSuccess(t *testing.T) {
	svc := newCartTestService(t)
	handler := CartAddItem(svc, nil)

	body := `{"catalog_item_id":"item-1","seller_id":"seller-1","name":"Burrito","unit_price":"9.50","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	snapshot := decodeCartSnapshot(t, resp.Body)
	if len(snapshot.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(snapshot.Items))
	}
	if snapshot.Subtotal.StringFixed(2) != "19.00" {
		t.Fatalf("unexpected subtotal %s", snapshot.Subtotal)
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	handler := CartAddItem(newCartTestService(t), nil)

	body := `{"catalog_item_id":"item-1","seller_id":"seller-1","name":"Burrito","quantity":1,"discount":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	handler := CartAddItem(newCartTestService(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"seller_id":"seller-1","name":"Burrito","quantity":1}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemNotFound(t *testing.T) {
	handler := CartUpdateItem(newCartTestService(t), nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items", strings.NewReader(`{"identity_key":"nope","quantity":3}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartRemoveItemMissingKey(t *testing.T) {
	handler := CartRemoveItem(newCartTestService(t), nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClearReturnsEmptySnapshot(t *testing.T) {
	svc := newCartTestService(t)

	add := CartAddItem(svc, nil)
	body := `{"catalog_item_id":"item-1","seller_id":"seller-1","name":"Burrito","unit_price":"9.50","quantity":1}`
	addReq := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	add.ServeHTTP(httptest.NewRecorder(), addReq)

	handler := CartClear(svc, nil)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	snapshot := decodeCartSnapshot(t, resp.Body)
	if !snapshot.Empty() {
		t.Fatalf("expected empty snapshot, got %d items", len(snapshot.Items))
	}
}
