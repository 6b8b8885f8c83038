package cart

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewCart(), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func burgerInput(quantity int, options ...string) LineItemInput {
	custom := []Customization{}
	if len(options) > 0 {
		custom = append(custom, Customization{GroupName: "Toppings", Options: options})
	}
	return LineItemInput{
		CatalogItemID:  "item-burger",
		SellerID:       "seller-1",
		Name:           "Smash Burger",
		UnitPrice:      decimal.RequireFromString("9.50"),
		Quantity:       quantity,
		Customizations: custom,
	}
}

func TestIdentityKeyOrderIndependence(t *testing.T) {
	t.Parallel()

	a := IdentityKey("item-1", []Customization{
		{GroupName: "Toppings", Options: []string{"cheese", "bacon"}},
		{GroupName: "Size", Options: []string{"large"}},
	})
	b := IdentityKey("item-1", []Customization{
		{GroupName: "Size", Options: []string{"large"}},
		{GroupName: "Toppings", Options: []string{"bacon", "cheese"}},
	})
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}

	c := IdentityKey("item-1", []Customization{
		{GroupName: "Toppings", Options: []string{"bacon"}},
	})
	if a == c {
		t.Fatalf("different selections must not share a key")
	}
}

func TestSameLine(t *testing.T) {
	t.Parallel()

	if !SameLine(burgerInput(1, "cheese", "bacon"), burgerInput(4, "bacon", "cheese")) {
		t.Fatalf("selection order must not affect line identity")
	}
	if SameLine(burgerInput(1, "cheese"), burgerInput(1, "bacon")) {
		t.Fatalf("different selections are different lines")
	}
}

func TestAddItemMergesMatchingLines(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, burgerInput(2, "cheese", "bacon")); err != nil {
		t.Fatalf("first add: %v", err)
	}
	snap, err := svc.AddItem(ctx, burgerInput(3, "bacon", "cheese"))
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(snap.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(snap.Items))
	}
	if snap.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", snap.Items[0].Quantity)
	}
}

func TestAddItemFromDifferentSellerReplacesCart(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, burgerInput(2)); err != nil {
		t.Fatalf("add: %v", err)
	}

	other := LineItemInput{
		CatalogItemID: "item-pad-thai",
		SellerID:      "seller-2",
		Name:          "Pad Thai",
		UnitPrice:     decimal.RequireFromString("12.00"),
		Quantity:      1,
	}
	snap, err := svc.AddItem(ctx, other)
	if err != nil {
		t.Fatalf("cross-seller add: %v", err)
	}

	if snap.SellerID != "seller-2" {
		t.Fatalf("expected seller-2 binding, got %q", snap.SellerID)
	}
	if len(snap.Items) != 1 || snap.Items[0].CatalogItemID != "item-pad-thai" {
		t.Fatalf("expected single-item replacement cart, got %+v", snap.Items)
	}
}

func TestSingleSellerInvariantHolds(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	inputs := []LineItemInput{
		burgerInput(1),
		{CatalogItemID: "i2", SellerID: "seller-2", Name: "Soup", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
		{CatalogItemID: "i3", SellerID: "seller-2", Name: "Rolls", UnitPrice: decimal.NewFromInt(4), Quantity: 2},
		{CatalogItemID: "i4", SellerID: "seller-1", Name: "Fries", UnitPrice: decimal.NewFromInt(3), Quantity: 1},
	}
	for _, input := range inputs {
		snap, err := svc.AddItem(ctx, input)
		if err != nil {
			t.Fatalf("add %s: %v", input.CatalogItemID, err)
		}
		for _, item := range snap.Items {
			if item.SellerID != snap.SellerID {
				t.Fatalf("item %s seller %q diverges from cart seller %q", item.CatalogItemID, item.SellerID, snap.SellerID)
			}
		}
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, burgerInput(2))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	key := snap.Items[0].IdentityKey

	snap, err = svc.UpdateQuantity(ctx, key, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !snap.Empty() {
		t.Fatalf("expected empty cart, got %d items", len(snap.Items))
	}
	if snap.SellerID != "" {
		t.Fatalf("expected seller binding cleared, got %q", snap.SellerID)
	}
}

func TestUpdateQuantityUnknownKey(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	_, err := svc.UpdateQuantity(context.Background(), "missing", 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveLastItemClearsSellerBinding(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, burgerInput(1))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	snap, err = svc.RemoveItem(ctx, snap.Items[0].IdentityKey)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if snap.SellerID != "" || !snap.Empty() {
		t.Fatalf("expected fully reset cart, got %+v", snap)
	}

	// Any seller is accepted after a reset.
	if _, err := svc.AddItem(ctx, LineItemInput{
		CatalogItemID: "i9", SellerID: "seller-9", Name: "Tacos",
		UnitPrice: decimal.NewFromInt(8), Quantity: 1,
	}); err != nil {
		t.Fatalf("add after reset: %v", err)
	}
}

func TestSubtotalRecomputedOnEveryMutation(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, burgerInput(2))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if want := decimal.RequireFromString("19.00"); !snap.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, snap.Subtotal)
	}

	snap, err = svc.UpdateQuantity(ctx, snap.Items[0].IdentityKey, 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if want := decimal.RequireFromString("28.50"); !snap.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, snap.Subtotal)
	}
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input LineItemInput
	}{
		{"missing catalog id", LineItemInput{SellerID: "s", Name: "x", Quantity: 1}},
		{"missing seller id", LineItemInput{CatalogItemID: "c", Name: "x", Quantity: 1}},
		{"zero quantity", LineItemInput{CatalogItemID: "c", SellerID: "s", Name: "x", Quantity: 0}},
		{"negative price", LineItemInput{CatalogItemID: "c", SellerID: "s", Name: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		_, err := svc.AddItem(ctx, tc.input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}
