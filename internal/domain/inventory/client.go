// internal/domain/inventory/client.go
package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-service/internal/pkg/httpclient"
)

// ErrInsufficientStock is returned when the requested quantity is not available
var ErrInsufficientStock = errors.New("insufficient stock")

// Checker answers availability questions. The check is advisory: cart
// operations treat a failed or negative answer as a warning, never a hard
// stop, because stock is only reserved at checkout.
type Checker interface {
	CheckAvailability(ctx context.Context, tenantID uuid.UUID, sku string, quantity int) error
}

// HTTPChecker is the network-backed availability checker
type HTTPChecker struct {
	http *httpclient.Client
}

// NewHTTPChecker creates an inventory checker against the given base URL
func NewHTTPChecker(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPChecker {
	return &HTTPChecker{
		http: httpclient.New("inventory-service", baseURL, timeout, logger),
	}
}

// CheckAvailability asks the inventory service whether quantity units of sku
// are on hand for the tenant
func (c *HTTPChecker) CheckAvailability(ctx context.Context, tenantID uuid.UUID, sku string, quantity int) error {
	header := http.Header{}
	header.Set("X-Tenant-Id", tenantID.String())

	query := url.Values{}
	query.Set("sku", sku)
	query.Set("quantity", strconv.Itoa(quantity))

	var envelope struct {
		Data struct {
			Available bool `json:"available"`
		} `json:"data"`
	}

	if err := c.http.GetJSON(ctx, "/api/v1/inventory/availability?"+query.Encode(), header, &envelope); err != nil {
		return err
	}

	if !envelope.Data.Available {
		return fmt.Errorf("%w: sku %s quantity %d", ErrInsufficientStock, sku, quantity)
	}
	return nil
}

// NoopChecker always reports availability. Used until location-aware stock
// lookups land in the inventory service.
type NoopChecker struct{}

// CheckAvailability always succeeds
func (NoopChecker) CheckAvailability(context.Context, uuid.UUID, string, int) error {
	return nil
}
