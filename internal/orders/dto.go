package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickplate/ordercore/internal/cart"
	"github.com/quickplate/ordercore/pkg/enums"
	"github.com/quickplate/ordercore/pkg/types"
)

// Customer is the delivery contact attached to an order.
type Customer struct {
	Name    string        `json:"name" validate:"required"`
	Phone   string        `json:"phone" validate:"required"`
	Address types.Address `json:"address"`
}

// Order is the client's view of a server-authored order. Status only
// advances through validated transitions or authoritative snapshots.
type Order struct {
	ID                    string             `json:"id"`
	SellerID              string             `json:"seller_id"`
	Items                 []cart.LineItem    `json:"items"`
	Status                enums.OrderStatus  `json:"status"`
	FeeBreakdown          types.FeeBreakdown `json:"fee_breakdown"`
	Total                 decimal.Decimal    `json:"total"`
	Customer              Customer           `json:"customer"`
	SpecialInstructions   *string            `json:"special_instructions,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	EstimatedDeliveryTime *time.Time         `json:"estimated_delivery_time,omitempty"`
}

// StatusEvent is one push-channel update for an order. Either field
// may be absent.
type StatusEvent struct {
	Status                *enums.OrderStatus `json:"status,omitempty"`
	EstimatedDeliveryTime *time.Time         `json:"estimated_delivery_time,omitempty"`
}

// CreateOrderRequest is the payload for the order API's create endpoint.
type CreateOrderRequest struct {
	SellerID            string              `json:"seller_id"`
	Items               []cart.LineItem     `json:"items"`
	DeliveryAddress     types.Address       `json:"delivery_address"`
	PaymentMethod       enums.PaymentMethod `json:"payment_method"`
	PaymentToken        *string             `json:"payment_token,omitempty"`
	SpecialInstructions *string             `json:"special_instructions,omitempty"`
	Customer            Customer            `json:"customer"`
	FeeBreakdown        types.FeeBreakdown  `json:"fee_breakdown"`
	Total               decimal.Decimal     `json:"total"`
}

// PaymentDirective tells the client whether the server demands a
// secondary payment confirmation before the order is considered paid.
type PaymentDirective struct {
	RequiresConfirmation bool   `json:"requires_confirmation"`
	ConfirmationID       string `json:"confirmation_id,omitempty"`
}

// CreateOrderResponse is the order API's create response.
type CreateOrderResponse struct {
	Order   Order             `json:"order"`
	Payment *PaymentDirective `json:"payment,omitempty"`
}
