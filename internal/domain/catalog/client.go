// internal/domain/catalog/client.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-service/internal/pkg/httpclient"
)

// ErrNotFound is returned when the catalog has no product with the given id
var ErrNotFound = errors.New("product not found in catalog")

// Product is the catalog's view of a sellable product
type Product struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Images    []string        `json:"images"`
	Status    string          `json:"status"`
}

// PrimaryImage returns the first product image, or empty when there is none
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Client fetches product details from the catalog service
type Client interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error)
}

// HTTPClient is the network-backed catalog client
type HTTPClient struct {
	http *httpclient.Client
}

// NewHTTPClient creates a catalog client against the given base URL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		http: httpclient.New("catalog-service", baseURL, timeout, logger),
	}
}

// GetProduct fetches a product by id, scoped to the tenant
func (c *HTTPClient) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error) {
	header := http.Header{}
	header.Set("X-Tenant-Id", tenantID.String())

	var envelope struct {
		Data *Product `json:"data"`
	}

	err := c.http.GetJSON(ctx, fmt.Sprintf("/api/v1/product/%s", productID), header, &envelope)
	if errors.Is(err, httpclient.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, ErrNotFound
	}

	return envelope.Data, nil
}
