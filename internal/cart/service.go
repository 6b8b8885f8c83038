package cart

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
)

// Service exposes all cart mutations. No other component writes to the
// cart directly.
type Service interface {
	AddItem(ctx context.Context, input LineItemInput) (Snapshot, error)
	UpdateQuantity(ctx context.Context, identityKey string, quantity int) (Snapshot, error)
	RemoveItem(ctx context.Context, identityKey string) (Snapshot, error)
	Clear(ctx context.Context) Snapshot
	Snapshot(ctx context.Context) Snapshot
}

type service struct {
	cart   *Cart
	logger *logger.Logger
}

// NewService builds a cart service around the provided cart state.
func NewService(cart *Cart, logg *logger.Logger) (Service, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart state required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{cart: cart, logger: logg}, nil
}

// AddItem merges the input into an existing matching line or appends a
// new one. Adding from a different seller replaces the current cart.
func (s *service) AddItem(ctx context.Context, input LineItemInput) (Snapshot, error) {
	if strings.TrimSpace(input.CatalogItemID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "catalog item id is required")
	}
	if strings.TrimSpace(input.SellerID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if input.Quantity <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPrice.IsNegative() {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	replaced := s.cart.add(input)
	if replaced {
		ctx = s.logger.WithSellerID(ctx, input.SellerID)
		s.logger.Info(ctx, "cart replaced for new seller")
	}
	return s.cart.snapshot(), nil
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less
// removes the line. Quantities have no client-side upper bound.
func (s *service) UpdateQuantity(ctx context.Context, identityKey string, quantity int) (Snapshot, error) {
	if strings.TrimSpace(identityKey) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "identity key is required")
	}
	if !s.cart.setQuantity(identityKey, quantity) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
	}
	return s.cart.snapshot(), nil
}

// RemoveItem deletes the line. Removing the last line clears the
// seller binding so any seller can be added next.
func (s *service) RemoveItem(ctx context.Context, identityKey string) (Snapshot, error) {
	if strings.TrimSpace(identityKey) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "identity key is required")
	}
	if !s.cart.remove(identityKey) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
	}
	return s.cart.snapshot(), nil
}

// Clear empties the cart and seller binding unconditionally.
func (s *service) Clear(ctx context.Context) Snapshot {
	s.cart.clear()
	return s.cart.snapshot()
}

// Snapshot returns the current cart view with the subtotal recomputed.
func (s *service) Snapshot(ctx context.Context) Snapshot {
	return s.cart.snapshot()
}
