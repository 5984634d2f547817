// internal/domain/promotion/client.go
package promotion

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-service/internal/pkg/httpclient"
)

// ErrCouponRejected is returned when the promotion service declines a coupon code
var ErrCouponRejected = errors.New("coupon rejected")

// Client validates coupons and quotes promotion-adjusted prices
type Client interface {
	ValidateCoupon(ctx context.Context, tenantID uuid.UUID, code string) error
	QuotePrice(ctx context.Context, tenantID, productID uuid.UUID, basePrice decimal.Decimal, quantity int, couponCode *string) (decimal.Decimal, error)
}

// HTTPClient is the network-backed promotion client
type HTTPClient struct {
	http *httpclient.Client
}

// NewHTTPClient creates a promotion client against the given base URL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		http: httpclient.New("promotion-service", baseURL, timeout, logger),
	}
}

type validateRequest struct {
	CouponCode string `json:"coupon_code"`
}

type quoteRequest struct {
	ProductID  uuid.UUID       `json:"product_id"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Quantity   int             `json:"quantity"`
	CouponCode *string         `json:"coupon_code,omitempty"`
}

// ValidateCoupon asks the promotion service whether code is redeemable
func (c *HTTPClient) ValidateCoupon(ctx context.Context, tenantID uuid.UUID, code string) error {
	header := http.Header{}
	header.Set("X-Tenant-Id", tenantID.String())

	var envelope struct {
		Data struct {
			Valid bool `json:"valid"`
		} `json:"data"`
	}

	err := c.http.PostJSON(ctx, "/api/v1/promotion/coupon/validate", header, validateRequest{CouponCode: code}, &envelope)
	if errors.Is(err, httpclient.ErrNotFound) {
		return ErrCouponRejected
	}
	if err != nil {
		return err
	}
	if !envelope.Data.Valid {
		return ErrCouponRejected
	}
	return nil
}

// QuotePrice returns the promotion-adjusted unit price for a product
func (c *HTTPClient) QuotePrice(ctx context.Context, tenantID, productID uuid.UUID, basePrice decimal.Decimal, quantity int, couponCode *string) (decimal.Decimal, error) {
	header := http.Header{}
	header.Set("X-Tenant-Id", tenantID.String())

	var envelope struct {
		Data struct {
			UnitPrice decimal.Decimal `json:"unit_price"`
		} `json:"data"`
	}

	req := quoteRequest{
		ProductID:  productID,
		BasePrice:  basePrice,
		Quantity:   quantity,
		CouponCode: couponCode,
	}
	if err := c.http.PostJSON(ctx, "/api/v1/promotion/calculate", header, req, &envelope); err != nil {
		return decimal.Zero, err
	}

	return envelope.Data.UnitPrice, nil
}

// StubClient is the fixed no-op double used until the promotion service
// ships: every coupon validates and every quote returns the base price.
type StubClient struct{}

// ValidateCoupon accepts any non-empty code
func (StubClient) ValidateCoupon(_ context.Context, _ uuid.UUID, code string) error {
	if code == "" {
		return ErrCouponRejected
	}
	return nil
}

// QuotePrice returns the base price unchanged
func (StubClient) QuotePrice(_ context.Context, _, _ uuid.UUID, basePrice decimal.Decimal, _ int, _ *string) (decimal.Decimal, error) {
	return basePrice, nil
}
