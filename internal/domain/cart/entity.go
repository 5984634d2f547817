// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart represents the per-tenant, per-user cart aggregate stored in Redis.
// Monetary fields are derived: they are only written by the recalculation
// step, never directly by callers.
type Cart struct {
	UserID         uuid.UUID       `json:"user_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Items          []CartItem      `json:"items"`
	CouponCode     *string         `json:"coupon_code,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CartItem represents one distinct (product, variant) line within a cart.
// ItemID is generated once at creation and never regenerated; it is the
// handle used by update and remove operations.
type CartItem struct {
	ItemID     string          `json:"item_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	VariantID  *uuid.UUID      `json:"variant_id,omitempty"`
	Currency   string          `json:"currency"`
}

// SameLine reports whether the item addresses the given (product, variant) pair
func (i CartItem) SameLine(productID uuid.UUID, variantID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil && variantID == nil {
		return true
	}
	return i.VariantID != nil && variantID != nil && *i.VariantID == *variantID
}

// FindItem returns the index of the item with the given itemID, or -1
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy of the cart. Mutation engine operations work on
// a clone so that a failed transformation leaves the caller's cart untouched.
func (c *Cart) Clone() Cart {
	out := *c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.CouponCode != nil {
		code := *c.CouponCode
		out.CouponCode = &code
	}
	return out
}
