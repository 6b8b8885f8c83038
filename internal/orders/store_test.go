package orders

import (
	"testing"
	"time"

	"github.com/quickplate/ordercore/pkg/enums"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
)

func statusPtr(s enums.OrderStatus) *enums.OrderStatus { return &s }

func seededStore(status enums.OrderStatus) *Store {
	store := NewStore()
	store.Put(Order{ID: "ord-1", SellerID: "seller-1", Status: status})
	return store
}

func TestApplyEventLegalTransition(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusPending)

	order, err := store.ApplyEvent("ord-1", StatusEvent{Status: statusPtr(enums.OrderStatusConfirmed)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", order.Status)
	}
}

func TestApplyEventIllegalTransitionRetainsState(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusDelivered)

	_, err := store.ApplyEvent("ord-1", StatusEvent{Status: statusPtr(enums.OrderStatusPreparing)})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	order, err := store.Get("ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if order.Status != enums.OrderStatusDelivered {
		t.Fatalf("terminal status must be retained, got %s", order.Status)
	}
}

func TestApplyEventSkippedStateRejected(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusPending)

	if _, err := store.ApplyEvent("ord-1", StatusEvent{Status: statusPtr(enums.OrderStatusPreparing)}); err == nil {
		t.Fatalf("expected rejection for skipped CONFIRMED state")
	}
}

func TestApplyEventETAAppliesWithoutStatus(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusConfirmed)

	eta := time.Now().Add(40 * time.Minute).UTC()
	order, err := store.ApplyEvent("ord-1", StatusEvent{EstimatedDeliveryTime: &eta})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if order.EstimatedDeliveryTime == nil || !order.EstimatedDeliveryTime.Equal(eta) {
		t.Fatalf("expected eta %v, got %v", eta, order.EstimatedDeliveryTime)
	}
}

func TestApplyEventETAAppliesEvenWithIllegalStatus(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusConfirmed)

	eta := time.Now().Add(time.Hour).UTC()
	_, err := store.ApplyEvent("ord-1", StatusEvent{
		Status:                statusPtr(enums.OrderStatusDelivered),
		EstimatedDeliveryTime: &eta,
	})
	if err == nil {
		t.Fatalf("expected rejection for skipped states")
	}

	order, _ := store.Get("ord-1")
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status must not advance, got %s", order.Status)
	}
	if order.EstimatedDeliveryTime == nil || !order.EstimatedDeliveryTime.Equal(eta) {
		t.Fatalf("eta should apply unconditionally")
	}
}

func TestApplyEventUnknownOrder(t *testing.T) {
	t.Parallel()
	store := NewStore()

	_, err := store.ApplyEvent("missing", StatusEvent{Status: statusPtr(enums.OrderStatusConfirmed)})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplySnapshotOverwritesEvenWhenSkippingStates(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusConfirmed)

	// Authoritative refetch after a reconnect may legitimately jump
	// several fulfillment stages at once.
	updated := store.ApplySnapshot(Order{ID: "ord-1", SellerID: "seller-1", Status: enums.OrderStatusOutForDelivery})
	if updated.Status != enums.OrderStatusOutForDelivery {
		t.Fatalf("expected OUT_FOR_DELIVERY, got %s", updated.Status)
	}

	order, err := store.Get("ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if order.Status != enums.OrderStatusOutForDelivery {
		t.Fatalf("snapshot must win, got %s", order.Status)
	}
}

func TestForget(t *testing.T) {
	t.Parallel()
	store := seededStore(enums.OrderStatusPending)
	store.Forget("ord-1")

	if _, err := store.Get("ord-1"); err == nil {
		t.Fatalf("expected forgotten order to be gone")
	}
}
