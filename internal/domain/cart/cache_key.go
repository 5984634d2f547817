// internal/domain/cart/cache_key.go
package cart

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const cacheKeyPrefix = "cart"

// CacheKey encodes a (tenant, user) pair into the canonical cache key
// "cart:{tenantId}:{userId}". Both identifiers render as canonical UUID text,
// so distinct pairs can never collide.
func CacheKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, tenantID, userID)
}

// ParseCacheKey decodes a cache key back into its (tenant, user) pair
func ParseCacheKey(key string) (tenantID, userID uuid.UUID, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != cacheKeyPrefix {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed cart cache key: %q", key)
	}

	tenantID, err = uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("tenant id in cache key %q: %w", key, err)
	}

	userID, err = uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("user id in cache key %q: %w", key, err)
	}

	return tenantID, userID, nil
}
