package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of an order. Progression is
// strictly linear; CANCELLED branches off any non-terminal state.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

var validOrderStatuses = append(append([]OrderStatus{}, orderStatusSequence...), OrderStatusCancelled)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether next is a legal successor of s: the single
// next state in the linear sequence, or CANCELLED from any non-terminal
// state. Everything else, including repeats, is rejected.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	expected, ok := s.NextExpected()
	return ok && next == expected
}

// NextExpected returns the single legal non-cancel successor. The second
// return is false at a terminal state or for an unknown value.
func (s OrderStatus) NextExpected() (OrderStatus, bool) {
	for i, candidate := range orderStatusSequence {
		if candidate == s && i+1 < len(orderStatusSequence) {
			return orderStatusSequence[i+1], true
		}
	}
	return "", false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
