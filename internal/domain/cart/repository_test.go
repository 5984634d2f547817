// internal/domain/cart/repository_test.go
package cart

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a miniredis-backed store
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewStore(client, time.Hour, logger), mr
}

func storedCart(t *testing.T) Cart {
	t.Helper()
	engine := NewEngine()
	c := engine.CreateEmpty(uuid.New(), uuid.New(), "USD")
	withItem, err := engine.AddOrMergeItem(c, uuid.New(), nil, testSnapshot(), 2, money(t, "10.00"))
	require.NoError(t, err)
	return withItem
}

func TestStore_FindMissing(t *testing.T) {
	store, _ := setupTestStore(t)

	found, err := store.Find(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestStore_SaveAndFind(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	c := storedCart(t)
	require.NoError(t, store.Save(ctx, &c))

	found, err := store.Find(ctx, c.TenantID, c.UserID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, c.UserID, found.UserID)
	assert.Equal(t, c.TenantID, found.TenantID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, c.Items[0].ItemID, found.Items[0].ItemID)
	assert.True(t, c.Subtotal.Equal(found.Subtotal))

	// Save must set the TTL
	ttl := mr.TTL(CacheKey(c.TenantID, c.UserID))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestStore_SaveRefreshesTTL(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	c := storedCart(t)
	require.NoError(t, store.Save(ctx, &c))

	key := CacheKey(c.TenantID, c.UserID)
	mr.FastForward(30 * time.Minute)
	require.Less(t, mr.TTL(key), time.Hour)

	require.NoError(t, store.Save(ctx, &c))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestStore_SaveOverwritesUnconditionally(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c := storedCart(t)
	require.NoError(t, store.Save(ctx, &c))

	engine := NewEngine()
	updated, err := engine.UpdateItemQuantity(c, c.Items[0].ItemID, 7)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &updated))

	found, err := store.Find(ctx, c.TenantID, c.UserID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 7, found.Items[0].Quantity)
}

func TestStore_FindDeletesUnreadableEntry(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()
	key := CacheKey(tenantID, userID)
	require.NoError(t, mr.Set(key, "{not valid json at all"))

	found, err := store.Find(ctx, tenantID, userID)
	require.NoError(t, err, "corruption must never surface as an error")
	assert.Nil(t, found)

	// The corrupted entry must be gone
	assert.False(t, mr.Exists(key))
}

func TestStore_FindConvertsLegacyRecord(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()
	productID := uuid.New()
	key := CacheKey(tenantID, userID)

	// A schema-drifted entry: type-discriminator metadata, camelCase image
	// key, money as strings
	legacy := `{
		"@class": "com.ecom.cart.model.Cart",
		"user_id": "` + userID.String() + `",
		"tenant_id": "` + tenantID.String() + `",
		"items": [{
			"item_id": "legacy-item-1",
			"product_id": "` + productID.String() + `",
			"sku": "SKU-9",
			"name": "Legacy Product",
			"imageUrl": "https://cdn.example.com/legacy.jpg",
			"quantity": 2,
			"unit_price": "10.00",
			"total_price": "20.00",
			"currency": "USD"
		}],
		"subtotal": "20.00",
		"discount_amount": "0",
		"tax_amount": "0",
		"shipping_cost": "0",
		"total": "20.00",
		"currency": "USD"
	}`
	require.NoError(t, mr.Set(key, legacy))

	found, err := store.Find(ctx, tenantID, userID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, tenantID, found.TenantID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "legacy-item-1", found.Items[0].ItemID)
	assert.Equal(t, productID, found.Items[0].ProductID)
	assert.Equal(t, "https://cdn.example.com/legacy.jpg", found.Items[0].ImageURL)
	assert.True(t, money(t, "20.00").Equal(found.Items[0].TotalPrice))

	// Conversion alone must not rewrite the entry; the caller's next Save does
	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, legacy, raw)
}

func TestStore_FindDeletesUnconvertibleRecord(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()
	key := CacheKey(tenantID, userID)

	// JSON object, but the identity fields cannot be parsed
	require.NoError(t, mr.Set(key, `{"user_id": "not-a-uuid", "tenant_id": 42}`))

	found, err := store.Find(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.False(t, mr.Exists(key))
}

func TestStore_FindKeepsUnrecognizedValue(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()
	key := CacheKey(tenantID, userID)

	// Valid JSON whose shape cannot be inspected as a cart record: treated
	// as absent but conservatively left in place
	require.NoError(t, mr.Set(key, `["unexpected", "array"]`))

	found, err := store.Find(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.True(t, mr.Exists(key))
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c := storedCart(t)
	require.NoError(t, store.Save(ctx, &c))
	require.NoError(t, store.Delete(ctx, c.TenantID, c.UserID))

	// Deleting an absent entry is not an error
	require.NoError(t, store.Delete(ctx, c.TenantID, c.UserID))

	found, err := store.Find(ctx, c.TenantID, c.UserID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestStore_Exists(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	c := storedCart(t)

	exists, err := store.Exists(ctx, c.TenantID, c.UserID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, &c))

	exists, err = store.Exists(ctx, c.TenantID, c.UserID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_PersistedFieldNames(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	c := storedCart(t)
	require.NoError(t, store.Save(ctx, &c))

	raw, err := mr.Get(CacheKey(c.TenantID, c.UserID))
	require.NoError(t, err)

	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &record))

	for _, field := range []string{
		"user_id", "tenant_id", "items", "subtotal", "discount_amount",
		"tax_amount", "shipping_cost", "total", "currency", "created_at", "updated_at",
	} {
		assert.Contains(t, record, field)
	}
}
