package types

import "github.com/shopspring/decimal"

// FeeBreakdown itemizes the charges composing an order total. Total is
// always recomputed from the parts, never carried over from UI state.
type FeeBreakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	Tip         decimal.Decimal `json:"tip"`
}

// Total sums every component of the breakdown.
func (f FeeBreakdown) Total() decimal.Decimal {
	return f.Subtotal.
		Add(f.Tax).
		Add(f.DeliveryFee).
		Add(f.ServiceFee).
		Add(f.Tip)
}
