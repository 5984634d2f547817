// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cart-service/internal/domain/catalog"
)

// fakeCatalog serves products from an in-memory map and counts lookups
type fakeCatalog struct {
	products map[uuid.UUID]*catalog.Product
	err      error
	calls    int
}

func (f *fakeCatalog) GetProduct(_ context.Context, _ uuid.UUID, productID uuid.UUID) (*catalog.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[productID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

type fakeInventory struct {
	err   error
	calls int
}

func (f *fakeInventory) CheckAvailability(context.Context, uuid.UUID, string, int) error {
	f.calls++
	return f.err
}

type fakePromotion struct {
	validateErr error
	quote       *decimal.Decimal
	quoteErr    error
}

func (f *fakePromotion) ValidateCoupon(context.Context, uuid.UUID, string) error {
	return f.validateErr
}

func (f *fakePromotion) QuotePrice(_ context.Context, _, _ uuid.UUID, basePrice decimal.Decimal, _ int, _ *string) (decimal.Decimal, error) {
	if f.quoteErr != nil {
		return decimal.Zero, f.quoteErr
	}
	if f.quote != nil {
		return *f.quote, nil
	}
	return basePrice, nil
}

type serviceFixture struct {
	svc       *Service
	store     *Store
	catalog   *fakeCatalog
	inventory *fakeInventory
	promotion *fakePromotion
	tenantID  uuid.UUID
	userID    uuid.UUID
	product   *catalog.Product
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()

	store, _ := setupTestStore(t)

	product := &catalog.Product{
		ProductID: uuid.New(),
		Name:      "Wireless Mouse",
		SKU:       "SKU-100",
		Price:     money(t, "10.00"),
		Currency:  "USD",
		Images:    []string{"https://cdn.example.com/mouse.jpg"},
		Status:    "active",
	}

	cat := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{product.ProductID: product}}
	inv := &fakeInventory{}
	promo := &fakePromotion{}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &serviceFixture{
		svc:       NewService(store, NewEngine(), cat, inv, promo, "USD", logger),
		store:     store,
		catalog:   cat,
		inventory: inv,
		promotion: promo,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
		product:   product,
	}
}

func (f *serviceFixture) addProduct(t *testing.T, quantity int) *CartResponse {
	t.Helper()
	resp, err := f.svc.AddItem(context.Background(), f.tenantID, f.userID, &AddItemRequest{
		ProductID: f.product.ProductID,
		Quantity:  quantity,
	})
	require.NoError(t, err)
	return resp
}

func TestService_AddItemCreatesCart(t *testing.T) {
	f := setupService(t)

	resp := f.addProduct(t, 2)

	assert.Equal(t, f.userID, resp.UserID)
	assert.Equal(t, f.tenantID, resp.TenantID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, f.product.ProductID, resp.Items[0].ProductID)
	assert.Equal(t, "SKU-100", resp.Items[0].SKU)
	assert.Equal(t, "Wireless Mouse", resp.Items[0].Name)
	assert.Equal(t, "https://cdn.example.com/mouse.jpg", resp.Items[0].ImageURL)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assertMoney(t, "20.00", resp.Items[0].TotalPrice)
	assertMoney(t, "20.00", resp.Subtotal)
	assertMoney(t, "20.00", resp.Total)
	assert.Equal(t, "USD", resp.Currency)

	// The cart must be persisted
	stored, err := f.store.Find(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestService_AddItemMergesExistingLine(t *testing.T) {
	f := setupService(t)

	f.addProduct(t, 2)

	// Price changed upstream between adds; the merged line keeps the price
	// recorded by the first add
	f.product.Price = money(t, "12.50")
	resp := f.addProduct(t, 3)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assertMoney(t, "10.00", resp.Items[0].UnitPrice)
	assertMoney(t, "50.00", resp.Subtotal)
}

func TestService_AddItemUnknownProduct(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.AddItem(context.Background(), f.tenantID, f.userID, &AddItemRequest{
		ProductID: uuid.New(),
		Quantity:  1,
	})
	require.ErrorIs(t, err, ErrProductNotFound)

	// No cart may be created for a failed add
	exists, existsErr := f.store.Exists(context.Background(), f.tenantID, f.userID)
	require.NoError(t, existsErr)
	assert.False(t, exists)
}

func TestService_AddItemCatalogUnavailable(t *testing.T) {
	f := setupService(t)
	f.catalog.err = errors.New("connection refused")

	_, err := f.svc.AddItem(context.Background(), f.tenantID, f.userID, &AddItemRequest{
		ProductID: f.product.ProductID,
		Quantity:  1,
	})
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestService_AddItemInventoryFailureIsAdvisory(t *testing.T) {
	f := setupService(t)
	f.inventory.err = errors.New("inventory service down")

	resp := f.addProduct(t, 2)

	assert.Equal(t, 1, f.inventory.calls)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestService_AddItemPromotionFallsBackToBasePrice(t *testing.T) {
	f := setupService(t)
	f.promotion.quoteErr = errors.New("promotion service down")

	resp := f.addProduct(t, 1)

	assertMoney(t, "10.00", resp.Items[0].UnitPrice)
}

func TestService_AddItemUsesPromotionPrice(t *testing.T) {
	f := setupService(t)
	discounted := money(t, "8.00")
	f.promotion.quote = &discounted

	resp := f.addProduct(t, 2)

	assertMoney(t, "8.00", resp.Items[0].UnitPrice)
	assertMoney(t, "16.00", resp.Subtotal)
}

func TestService_AddItemCurrencyMismatch(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 1)

	other := &catalog.Product{
		ProductID: uuid.New(),
		Name:      "Imported Keyboard",
		SKU:       "SKU-200",
		Price:     money(t, "50.00"),
		Currency:  "EUR",
	}
	f.catalog.products[other.ProductID] = other

	_, err := f.svc.AddItem(context.Background(), f.tenantID, f.userID, &AddItemRequest{
		ProductID: other.ProductID,
		Quantity:  1,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency", verr.Field)

	// The rejected add leaves the cart untouched
	stored, findErr := f.store.Find(context.Background(), f.tenantID, f.userID)
	require.NoError(t, findErr)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 1)
}

func TestService_UpdateItem(t *testing.T) {
	f := setupService(t)
	resp := f.addProduct(t, 2)
	itemID := resp.Items[0].ItemID

	updated, err := f.svc.UpdateItem(context.Background(), f.tenantID, f.userID, itemID, &UpdateItemRequest{Quantity: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, updated.Items[0].Quantity)
	assertMoney(t, "50.00", updated.Subtotal)
}

func TestService_UpdateItemChecksInventoryOnlyOnIncrease(t *testing.T) {
	f := setupService(t)
	resp := f.addProduct(t, 5)
	itemID := resp.Items[0].ItemID
	f.inventory.calls = 0

	_, err := f.svc.UpdateItem(context.Background(), f.tenantID, f.userID, itemID, &UpdateItemRequest{Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, f.inventory.calls, "lowering the quantity needs no availability answer")

	_, err = f.svc.UpdateItem(context.Background(), f.tenantID, f.userID, itemID, &UpdateItemRequest{Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, f.inventory.calls)
}

func TestService_UpdateItemUnknownItem(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	_, err := f.svc.UpdateItem(context.Background(), f.tenantID, f.userID, "no-such-item", &UpdateItemRequest{Quantity: 3})
	require.ErrorIs(t, err, ErrItemNotFound)

	stored, findErr := f.store.Find(context.Background(), f.tenantID, f.userID)
	require.NoError(t, findErr)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestService_UpdateItemAbsentCart(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.UpdateItem(context.Background(), f.tenantID, f.userID, "any", &UpdateItemRequest{Quantity: 1})
	require.ErrorIs(t, err, ErrCartNotFound)
}

func TestService_RemoveLastItemDeletesCartRecord(t *testing.T) {
	f := setupService(t)
	resp := f.addProduct(t, 2)

	removed, err := f.svc.RemoveItem(context.Background(), f.tenantID, f.userID, resp.Items[0].ItemID)
	require.NoError(t, err)
	assert.Empty(t, removed.Items)
	assertMoney(t, "0", removed.Total)

	exists, err := f.store.Exists(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	assert.False(t, exists, "an emptied cart must leave no record behind")
}

func TestService_RemoveItemKeepsRemainingLines(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	other := &catalog.Product{
		ProductID: uuid.New(),
		Name:      "USB Cable",
		SKU:       "SKU-300",
		Price:     money(t, "5.00"),
		Currency:  "USD",
	}
	f.catalog.products[other.ProductID] = other
	resp, err := f.svc.AddItem(context.Background(), f.tenantID, f.userID, &AddItemRequest{
		ProductID: other.ProductID,
		Quantity:  1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	removed, err := f.svc.RemoveItem(context.Background(), f.tenantID, f.userID, resp.Items[0].ItemID)
	require.NoError(t, err)
	require.Len(t, removed.Items, 1)
	assert.Equal(t, other.ProductID, removed.Items[0].ProductID)
	assertMoney(t, "5.00", removed.Subtotal)
}

func TestService_GetCartAbsent(t *testing.T) {
	f := setupService(t)

	resp, err := f.svc.GetCart(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)

	assert.Empty(t, resp.Items)
	assertMoney(t, "0", resp.Total)
	assert.Equal(t, "USD", resp.Currency)

	// Reading must not create a record
	exists, err := f.store.Exists(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestService_GetCartRefreshesPricing(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	// Catalog price changed since the add; a read re-quotes every line
	f.product.Price = money(t, "11.00")
	f.product.Name = "Wireless Mouse v2"

	resp, err := f.svc.GetCart(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)

	assert.Equal(t, "Wireless Mouse v2", resp.Items[0].Name)
	assertMoney(t, "11.00", resp.Items[0].UnitPrice)
	assertMoney(t, "22.00", resp.Subtotal)

	// The refreshed cart is persisted
	stored, err := f.store.Find(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	assertMoney(t, "11.00", stored.Items[0].UnitPrice)
}

func TestService_GetCartToleratesEnrichmentFailure(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	// The product disappears from the catalog; the cart keeps its last-known
	// snapshot instead of failing or dropping the line
	delete(f.catalog.products, f.product.ProductID)

	resp, err := f.svc.GetCart(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Wireless Mouse", resp.Items[0].Name)
	assertMoney(t, "10.00", resp.Items[0].UnitPrice)
	assertMoney(t, "20.00", resp.Subtotal)
}

func TestService_ClearCart(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	resp, err := f.svc.ClearCart(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	exists, err := f.store.Exists(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestService_CouponRoundTrip(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	applied, err := f.svc.ApplyCoupon(context.Background(), f.tenantID, f.userID, &CouponRequest{CouponCode: "SUMMER10"})
	require.NoError(t, err)
	require.NotNil(t, applied.CouponCode)
	assert.Equal(t, "SUMMER10", *applied.CouponCode)
	assertMoney(t, "20.00", applied.Total)

	cleared, err := f.svc.RemoveCoupon(context.Background(), f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Nil(t, cleared.CouponCode)
	assertMoney(t, "20.00", cleared.Total)
}

func TestService_ApplyCouponRejected(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 1)
	f.promotion.validateErr = errors.New("expired")

	_, err := f.svc.ApplyCoupon(context.Background(), f.tenantID, f.userID, &CouponRequest{CouponCode: "EXPIRED"})
	require.ErrorIs(t, err, ErrInvalidCoupon)

	stored, findErr := f.store.Find(context.Background(), f.tenantID, f.userID)
	require.NoError(t, findErr)
	assert.Nil(t, stored.CouponCode)
}

func TestService_ApplyCouponAbsentCart(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.ApplyCoupon(context.Background(), f.tenantID, f.userID, &CouponRequest{CouponCode: "SUMMER10"})
	require.ErrorIs(t, err, ErrCartNotFound)
}

func TestService_CartsAreTenantScoped(t *testing.T) {
	f := setupService(t)
	f.addProduct(t, 2)

	otherTenant := uuid.New()
	resp, err := f.svc.GetCart(context.Background(), otherTenant, f.userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items, "the same user in another tenant has a separate cart")
}
