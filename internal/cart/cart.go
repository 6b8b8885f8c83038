package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// LineItemInput is a fully-resolved add request: catalog identity,
// pricing, and a customization selection already validated as legal
// for the item.
type LineItemInput struct {
	CatalogItemID       string          `json:"catalog_item_id" validate:"required"`
	SellerID            string          `json:"seller_id" validate:"required"`
	Name                string          `json:"name" validate:"required"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int             `json:"quantity" validate:"required,gt=0"`
	Customizations      []Customization `json:"customizations,omitempty" validate:"omitempty,dive"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
	ImageRef            *string         `json:"image_ref,omitempty"`
}

// LineItem is one purchasable unit held in the cart. Customizations
// are stored normalized so the identity key is stable.
type LineItem struct {
	IdentityKey         string          `json:"identity_key"`
	CatalogItemID       string          `json:"catalog_item_id"`
	SellerID            string          `json:"seller_id"`
	Name                string          `json:"name"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int             `json:"quantity"`
	Customizations      []Customization `json:"customizations,omitempty"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
	ImageRef            *string         `json:"image_ref,omitempty"`
}

// LineTotal is the item's extended price.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable view of the cart at a point in time.
type Snapshot struct {
	SellerID string          `json:"seller_id,omitempty"`
	Items    []LineItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Empty reports whether the snapshot holds no items.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// Cart holds the ordered line items for at most one seller. All
// mutation goes through the cart service; if items is non-empty every
// item's seller matches sellerID.
type Cart struct {
	mu       sync.Mutex
	sellerID string
	items    []LineItem
}

// NewCart returns an empty cart with no seller binding.
func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) add(input LineItemInput) (replaced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sellerID != "" && c.sellerID != input.SellerID {
		// Adding from a different seller replaces the cart outright.
		c.items = nil
		c.sellerID = ""
		replaced = true
	}
	if c.sellerID == "" {
		c.sellerID = input.SellerID
	}

	key := IdentityKey(input.CatalogItemID, input.Customizations)
	for i := range c.items {
		if c.items[i].IdentityKey == key {
			c.items[i].Quantity += input.Quantity
			if input.SpecialInstructions != nil {
				c.items[i].SpecialInstructions = input.SpecialInstructions
			}
			return replaced
		}
	}
	c.items = append(c.items, LineItem{
		IdentityKey:         key,
		CatalogItemID:       input.CatalogItemID,
		SellerID:            input.SellerID,
		Name:                input.Name,
		UnitPrice:           input.UnitPrice,
		Quantity:            input.Quantity,
		Customizations:      normalizeCustomizations(input.Customizations),
		SpecialInstructions: input.SpecialInstructions,
		ImageRef:            input.ImageRef,
	})
	return replaced
}

func (c *Cart) setQuantity(identityKey string, quantity int) (found bool) {
	if quantity <= 0 {
		return c.remove(identityKey)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].IdentityKey == identityKey {
			c.items[i].Quantity = quantity
			return true
		}
	}
	return false
}

func (c *Cart) remove(identityKey string) (found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].IdentityKey == identityKey {
			c.items = append(c.items[:i], c.items[i+1:]...)
			if len(c.items) == 0 {
				c.sellerID = ""
			}
			return true
		}
	}
	return false
}

func (c *Cart) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.sellerID = ""
}

// snapshot copies the item slice so callers never observe later
// mutations. The subtotal is recomputed on every call, never cached.
func (c *Cart) snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return Snapshot{
		SellerID: c.sellerID,
		Items:    items,
		Subtotal: subtotal,
	}
}
