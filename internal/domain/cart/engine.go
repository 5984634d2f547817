// internal/domain/cart/engine.go
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot carries the display fields cached on a cart item when it is
// first added. They are refreshed opportunistically on read.
type ProductSnapshot struct {
	SKU      string
	Name     string
	ImageURL string
	Currency string
}

// Engine applies pure transformations to Cart values. It performs no I/O and
// never partially applies a change: every operation either returns a fully
// recalculated cart or an error with the input untouched.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a new mutation engine
func NewEngine() *Engine {
	return &Engine{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateEmpty returns a new cart with zero totals and no items
func (e *Engine) CreateEmpty(userID, tenantID uuid.UUID, currency string) Cart {
	now := e.now()
	return Cart{
		UserID:         userID,
		TenantID:       tenantID,
		Items:          []CartItem{},
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		ShippingCost:   decimal.Zero,
		Total:          decimal.Zero,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddOrMergeItem adds a new line for (productID, variantID) or, when the pair
// already exists, merges the quantity into the existing line. A merge keeps
// the unit price recorded by the first add; the newly fetched price is not
// applied retroactively.
func (e *Engine) AddOrMergeItem(c Cart, productID uuid.UUID, variantID *uuid.UUID, snap ProductSnapshot, quantity int, unitPrice decimal.Decimal) (Cart, error) {
	if quantity < 1 {
		return c, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	out := c.Clone()

	merged := false
	for i := range out.Items {
		if out.Items[i].SameLine(productID, variantID) {
			out.Items[i].Quantity += quantity
			out.Items[i].TotalPrice = out.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(out.Items[i].Quantity)))
			merged = true
			break
		}
	}

	if !merged {
		out.Items = append(out.Items, CartItem{
			ItemID:     uuid.New().String(),
			ProductID:  productID,
			SKU:        snap.SKU,
			Name:       snap.Name,
			ImageURL:   snap.ImageURL,
			Quantity:   quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
			VariantID:  variantID,
			Currency:   snap.Currency,
		})
	}

	return e.RecalculateTotals(out), nil
}

// UpdateItemQuantity replaces the quantity of the item addressed by itemID
func (e *Engine) UpdateItemQuantity(c Cart, itemID string, quantity int) (Cart, error) {
	if quantity < 1 {
		return c, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	idx := c.FindItem(itemID)
	if idx < 0 {
		return c, ErrItemNotFound
	}

	out := c.Clone()
	out.Items[idx].Quantity = quantity
	out.Items[idx].TotalPrice = out.Items[idx].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	return e.RecalculateTotals(out), nil
}

// RemoveItem removes the item addressed by itemID. The caller is responsible
// for deleting the stored record when the last item is removed: an empty
// persisted cart and a deleted cart must look identical to clients.
func (e *Engine) RemoveItem(c Cart, itemID string) (Cart, error) {
	idx := c.FindItem(itemID)
	if idx < 0 {
		return c, ErrItemNotFound
	}

	out := c.Clone()
	out.Items = append(out.Items[:idx], out.Items[idx+1:]...)

	return e.RecalculateTotals(out), nil
}

// ApplyCoupon records the coupon code on the cart. Discount computation is
// delegated to the promotion service and is not performed here.
func (e *Engine) ApplyCoupon(c Cart, code string) (Cart, error) {
	if code == "" {
		return c, &ValidationError{Field: "coupon_code", Reason: "is required"}
	}

	out := c.Clone()
	out.CouponCode = &code

	return e.RecalculateTotals(out), nil
}

// RemoveCoupon clears any coupon code from the cart
func (e *Engine) RemoveCoupon(c Cart) (Cart, error) {
	out := c.Clone()
	out.CouponCode = nil

	return e.RecalculateTotals(out), nil
}

// RecalculateTotals recomputes every derived monetary field from the current
// item list. The subtotal is always re-summed over the full list, never
// adjusted incrementally, so repeated partial updates cannot drift.
func (e *Engine) RecalculateTotals(c Cart) Cart {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}

	c.Subtotal = subtotal

	// Discount stays zero until the promotion service computes real coupon
	// discounts; tax and shipping are resolved at checkout.
	c.DiscountAmount = decimal.Zero
	c.TaxAmount = decimal.Zero
	c.ShippingCost = decimal.Zero

	c.Total = subtotal.
		Sub(c.DiscountAmount).
		Add(c.TaxAmount).
		Add(c.ShippingCost)

	c.UpdatedAt = e.now()
	return c
}
