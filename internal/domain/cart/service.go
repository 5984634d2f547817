// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-service/internal/domain/catalog"
	"github.com/your-org/cart-service/internal/domain/inventory"
	"github.com/your-org/cart-service/internal/domain/promotion"
)

// Service composes store, mutation engine and collaborator clients into the
// request-level cart operations
type Service struct {
	store           *Store
	engine          *Engine
	catalog         catalog.Client
	inventory       inventory.Checker
	promotion       promotion.Client
	defaultCurrency string
	logger          *logrus.Logger
}

// NewService creates a new cart service
func NewService(store *Store, engine *Engine, catalogClient catalog.Client, checker inventory.Checker, promo promotion.Client, defaultCurrency string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		store:           store,
		engine:          engine,
		catalog:         catalogClient,
		inventory:       checker,
		promotion:       promo,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a cart item quantity update request
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CouponRequest represents an apply-coupon request
type CouponRequest struct {
	CouponCode string `json:"coupon_code" binding:"required"`
}

// CartItemResponse is the API projection of one cart line
type CartItemResponse struct {
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

// CartResponse is the full API projection of a cart
type CartResponse struct {
	UserID         uuid.UUID          `json:"user_id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	Items          []CartItemResponse `json:"items"`
	CouponCode     *string            `json:"coupon_code,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	ShippingCost   decimal.Decimal    `json:"shipping_cost"`
	Total          decimal.Decimal    `json:"total"`
	Currency       string             `json:"currency"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// AddItem adds a product to the caller's cart, creating the cart lazily on
// the first add. The catalog lookup is fatal here: without a product there is
// nothing to add. Inventory and promotion answers are best-effort.
func (s *Service) AddItem(ctx context.Context, tenantID, userID uuid.UUID, req *AddItemRequest) (*CartResponse, error) {
	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	}).Debug("Adding item to cart")

	product, err := s.catalog.GetProduct(ctx, tenantID, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("%w: fetch product %s: %v", ErrUpstreamUnavailable, req.ProductID, err)
	}

	s.checkInventory(ctx, tenantID, product.SKU, req.Quantity)

	unitPrice := s.quotePrice(ctx, tenantID, product, req.Quantity, nil)

	current, err := s.store.Find(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	var working Cart
	if current == nil {
		working = s.engine.CreateEmpty(userID, tenantID, product.Currency)
	} else {
		working = *current
		// Single-currency carts: a product priced in another currency cannot
		// be merged into this cart.
		if working.Currency != "" && product.Currency != working.Currency {
			return nil, &ValidationError{
				Field:  "currency",
				Reason: fmt.Sprintf("product currency %s does not match cart currency %s", product.Currency, working.Currency),
			}
		}
	}

	snap := ProductSnapshot{
		SKU:      product.SKU,
		Name:     product.Name,
		ImageURL: product.PrimaryImage(),
		Currency: product.Currency,
	}

	updated, err := s.engine.AddOrMergeItem(working, req.ProductID, req.VariantID, snap, req.Quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		return nil, err
	}

	return toResponse(&updated), nil
}

// UpdateItem replaces the quantity of one cart line
func (s *Service) UpdateItem(ctx context.Context, tenantID, userID uuid.UUID, itemID string, req *UpdateItemRequest) (*CartResponse, error) {
	current, err := s.store.Find(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrCartNotFound
	}

	idx := current.FindItem(itemID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}

	// Only the increase needs an availability answer; lowering the quantity
	// can always proceed.
	if delta := req.Quantity - current.Items[idx].Quantity; delta > 0 {
		s.checkInventory(ctx, tenantID, current.Items[idx].SKU, delta)
	}

	updated, err := s.engine.UpdateItemQuantity(*current, itemID, req.Quantity)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		return nil, err
	}

	return toResponse(&updated), nil
}

// RemoveItem removes one cart line. Removing the last line deletes the whole
// cart record so that an emptied cart and a never-created cart are
// indistinguishable.
func (s *Service) RemoveItem(ctx context.Context, tenantID, userID uuid.UUID, itemID string) (*CartResponse, error) {
	current, err := s.store.Find(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrCartNotFound
	}

	updated, err := s.engine.RemoveItem(*current, itemID)
	if err != nil {
		return nil, err
	}

	if updated.IsEmpty() {
		if err := s.store.Delete(ctx, tenantID, userID); err != nil {
			return nil, err
		}
		return s.emptyResponse(tenantID, userID), nil
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		return nil, err
	}

	return toResponse(&updated), nil
}

// GetCart returns the caller's cart, re-enriching every line from the catalog
// and tolerating per-item enrichment failures by keeping last-known values.
// An absent cart yields an empty projection without creating a record.
func (s *Service) GetCart(ctx context.Context, tenantID, userID uuid.UUID) (*CartResponse, error) {
	current, err := s.store.Find(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return s.emptyResponse(tenantID, userID), nil
	}

	working := current.Clone()
	s.enrichItems(ctx, tenantID, &working)
	working = s.engine.RecalculateTotals(working)

	if err := s.store.Save(ctx, &working); err != nil {
		return nil, err
	}

	return toResponse(&working), nil
}

// ClearCart deletes the caller's cart record
func (s *Service) ClearCart(ctx context.Context, tenantID, userID uuid.UUID) (*CartResponse, error) {
	if err := s.store.Delete(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	return s.emptyResponse(tenantID, userID), nil
}

// ApplyCoupon validates a coupon with the promotion service and records it on
// the cart. The promotion service currently accepts everything; discount
// amounts stay zero until it computes real ones.
func (s *Service) ApplyCoupon(ctx context.Context, tenantID, userID uuid.UUID, req *CouponRequest) (*CartResponse, error) {
	current, err := s.store.Find(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrCartNotFound
	}

	if err := s.promotion.ValidateCoupon(ctx, tenantID, req.CouponCode); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, req.CouponCode)
	}

	updated, err := s.engine.ApplyCoupon(*current, req.CouponCode)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		return nil, err
	}

	return toResponse(&updated), nil
}

// RemoveCoupon clears any coupon from the cart
func (s *Service) RemoveCoupon(ctx context.Context, tenantID, userID uuid.UUID) (*CartResponse, error) {
	current, err := s.store.Find(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrCartNotFound
	}

	updated, err := s.engine.RemoveCoupon(*current)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		return nil, err
	}

	return toResponse(&updated), nil
}

// checkInventory runs the advisory availability check. Failures are logged
// and ignored: stock is only reserved at checkout.
func (s *Service) checkInventory(ctx context.Context, tenantID uuid.UUID, sku string, quantity int) {
	if err := s.inventory.CheckAvailability(ctx, tenantID, sku, quantity); err != nil {
		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"sku":       sku,
			"quantity":  quantity,
			"error":     err.Error(),
		}).Warn("Inventory check failed, proceeding anyway")
	}
}

// quotePrice asks the promotion service for the promotion-adjusted unit
// price, falling back to the catalog base price on any failure
func (s *Service) quotePrice(ctx context.Context, tenantID uuid.UUID, product *catalog.Product, quantity int, couponCode *string) decimal.Decimal {
	price, err := s.promotion.QuotePrice(ctx, tenantID, product.ProductID, product.Price, quantity, couponCode)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"product_id": product.ProductID,
			"error":      err.Error(),
		}).Warn("Promotion quote failed, using base price")
		return product.Price
	}
	return price
}

// enrichItems refreshes name, image and price of every line from the catalog.
// A failed lookup keeps that line's last-known values.
func (s *Service) enrichItems(ctx context.Context, tenantID uuid.UUID, c *Cart) {
	for i := range c.Items {
		item := &c.Items[i]

		product, err := s.catalog.GetProduct(ctx, tenantID, item.ProductID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"item_id":    item.ItemID,
				"product_id": item.ProductID,
				"error":      err.Error(),
			}).Warn("Failed to enrich cart item, keeping stale data")
			continue
		}

		item.Name = product.Name
		if img := product.PrimaryImage(); img != "" {
			item.ImageURL = img
		}

		newPrice := s.quotePrice(ctx, tenantID, product, item.Quantity, c.CouponCode)
		if !newPrice.Equal(item.UnitPrice) {
			item.UnitPrice = newPrice
			item.TotalPrice = newPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
	}
}

func (s *Service) emptyResponse(tenantID, userID uuid.UUID) *CartResponse {
	now := time.Now().UTC()
	return &CartResponse{
		UserID:         userID,
		TenantID:       tenantID,
		Items:          []CartItemResponse{},
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		ShippingCost:   decimal.Zero,
		Total:          decimal.Zero,
		Currency:       s.defaultCurrency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func toResponse(c *Cart) *CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartItemResponse{
			ItemID:     item.ItemID,
			ProductID:  item.ProductID,
			SKU:        item.SKU,
			Name:       item.Name,
			ImageURL:   item.ImageURL,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
			VariantID:  item.VariantID,
			Currency:   item.Currency,
		}
	}

	return &CartResponse{
		UserID:         c.UserID,
		TenantID:       c.TenantID,
		Items:          items,
		CouponCode:     c.CouponCode,
		Subtotal:       c.Subtotal,
		DiscountAmount: c.DiscountAmount,
		TaxAmount:      c.TaxAmount,
		ShippingCost:   c.ShippingCost,
		Total:          c.Total,
		Currency:       c.Currency,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
