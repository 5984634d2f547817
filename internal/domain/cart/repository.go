// internal/domain/cart/repository.go
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long an idle cart survives in Redis before expiring
const DefaultTTL = 7 * 24 * time.Hour

// Store is the Redis-backed cart repository. Redis is the only store of
// record: once an entry expires or is discarded during recovery, the cart is
// gone. That is acceptable for ephemeral session state.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewStore creates a cart store. A non-positive ttl falls back to DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// decodeOutcome classifies how a raw cache value was interpreted. The recovery
// policy in Find is written over this tagged result instead of ad hoc type
// checks.
type decodeOutcome int

const (
	outcomeDecoded      decodeOutcome = iota // matched the current schema directly
	outcomeConvertible                       // generic JSON object, worth a structural conversion
	outcomeUnreadable                        // not JSON at all
	outcomeUnrecognized                      // valid JSON but not an object
)

// Find looks up the cart for (tenant, user). A missing key is not an error:
// it returns (nil, nil). Unreadable entries are deleted and reported as
// absent, so cache corruption never surfaces to callers.
func (s *Store) Find(ctx context.Context, tenantID, userID uuid.UUID) (*Cart, error) {
	key := CacheKey(tenantID, userID)

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	outcome, cart, record := decodeStored(raw)
	switch outcome {
	case outcomeDecoded:
		return cart, nil

	case outcomeConvertible:
		converted, convErr := convertRecord(record)
		if convErr != nil {
			// Conversion failed: the entry is corrupted. Drop it and report
			// absent; the cart is lost but the key stays usable.
			s.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": convErr.Error(),
			}).Warn("Deleting cart entry that could not be converted")
			s.deleteCorrupted(ctx, key)
			return nil, nil
		}
		// Do not rewrite the entry here; the caller's next Save persists the
		// converted cart under the current schema.
		return converted, nil

	case outcomeUnreadable:
		s.logger.WithField("key", key).Warn("Deleting unreadable cart entry")
		s.deleteCorrupted(ctx, key)
		return nil, nil

	default: // outcomeUnrecognized
		// The shape could not even be inspected for corruption, so leave the
		// entry in place.
		s.logger.WithField("key", key).Warn("Unexpected value shape in cart entry, treating as absent")
		return nil, nil
	}
}

// Save writes the cart under its encoded key with the store's default TTL
func (s *Store) Save(ctx context.Context, c *Cart) error {
	return s.SaveTTL(ctx, c, s.ttl)
}

// SaveTTL writes the cart with an explicit TTL. The write is an unconditional
// overwrite: last write wins, with no version check. Every save refreshes the
// expiry.
func (s *Store) SaveTTL(ctx context.Context, c *Cart, ttl time.Duration) error {
	key := CacheKey(c.TenantID, c.UserID)

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	s.logger.WithField("key", key).Debug("Saved cart to Redis")
	return nil
}

// Delete removes the cart entry. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	key := CacheKey(tenantID, userID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	s.logger.WithField("key", key).Debug("Deleted cart from Redis")
	return nil
}

// Exists reports whether a cart entry is present for (tenant, user)
func (s *Store) Exists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	key := CacheKey(tenantID, userID)
	count, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return count > 0, nil
}

func (s *Store) deleteCorrupted(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Error("Failed to delete corrupted cart entry")
	}
}

// decodeStored classifies a raw cache value. The strict pass rejects unknown
// JSON keys, so entries written by an older schema (extra metadata fields,
// legacy key spellings) fall through to the structural-conversion path.
func decodeStored(raw []byte) (decodeOutcome, *Cart, map[string]interface{}) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var c Cart
	if err := dec.Decode(&c); err == nil && c.UserID != uuid.Nil && c.TenantID != uuid.Nil {
		return outcomeDecoded, &c, nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return outcomeUnreadable, nil, nil
	}

	record, ok := v.(map[string]interface{})
	if !ok {
		return outcomeUnrecognized, nil, nil
	}

	return outcomeConvertible, nil, record
}

// legacyCart mirrors Cart with loosened field types so that drifted entries
// (string identifiers, string-or-number money, camelCase image key) can still
// be read.
type legacyCart struct {
	UserID         string          `json:"user_id"`
	TenantID       string          `json:"tenant_id"`
	Items          []legacyItem    `json:"items"`
	CouponCode     *string         `json:"coupon_code"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type legacyItem struct {
	ItemID        string          `json:"item_id"`
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url"`
	ImageURLCamel string          `json:"imageUrl"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	VariantID     *string         `json:"variant_id"`
	Currency      string          `json:"currency"`
}

// convertRecord attempts a best-effort structural conversion of a generic
// JSON object into a Cart. Identity fields must parse; everything else is
// taken as-is and repaired by the next recalculation and save.
func convertRecord(record map[string]interface{}) (*Cart, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("re-marshal record: %w", err)
	}

	var legacy legacyCart
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	userID, err := uuid.Parse(legacy.UserID)
	if err != nil {
		return nil, fmt.Errorf("user_id: %w", err)
	}
	tenantID, err := uuid.Parse(legacy.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant_id: %w", err)
	}

	c := Cart{
		UserID:         userID,
		TenantID:       tenantID,
		Items:          make([]CartItem, 0, len(legacy.Items)),
		CouponCode:     legacy.CouponCode,
		Subtotal:       legacy.Subtotal,
		DiscountAmount: legacy.DiscountAmount,
		TaxAmount:      legacy.TaxAmount,
		ShippingCost:   legacy.ShippingCost,
		Total:          legacy.Total,
		Currency:       legacy.Currency,
		CreatedAt:      legacy.CreatedAt,
		UpdatedAt:      legacy.UpdatedAt,
	}

	for _, li := range legacy.Items {
		productID, err := uuid.Parse(li.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item %s product_id: %w", li.ItemID, err)
		}

		var variantID *uuid.UUID
		if li.VariantID != nil && *li.VariantID != "" {
			vid, err := uuid.Parse(*li.VariantID)
			if err != nil {
				return nil, fmt.Errorf("item %s variant_id: %w", li.ItemID, err)
			}
			variantID = &vid
		}

		imageURL := li.ImageURL
		if imageURL == "" {
			imageURL = li.ImageURLCamel
		}

		c.Items = append(c.Items, CartItem{
			ItemID:     li.ItemID,
			ProductID:  productID,
			SKU:        li.SKU,
			Name:       li.Name,
			ImageURL:   imageURL,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice,
			TotalPrice: li.TotalPrice,
			VariantID:  variantID,
			Currency:   li.Currency,
		})
	}

	return &c, nil
}
