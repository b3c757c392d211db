package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orgbase/orgbase/internal/model"
)

const (
	// identityCachePrefix is the Redis key prefix for resolved identities.
	identityCachePrefix = "identity:"
	// identityCacheTTL bounds how stale a cached role/tenant can be.
	identityCacheTTL = 5 * time.Minute
)

// GetIdentity retrieves a cached identity by token fingerprint.
// Returns nil on a cache miss; misses are not errors.
func (c *Cache) GetIdentity(ctx context.Context, fingerprint string) (*model.Identity, error) {
	data, err := c.client.Get(ctx, identityCachePrefix+fingerprint).Bytes()
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	var ident model.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &ident, nil
}

// SetIdentity caches a resolved identity.
func (c *Cache) SetIdentity(ctx context.Context, fingerprint string, ident *model.Identity) error {
	data, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	if err := c.client.Set(ctx, identityCachePrefix+fingerprint, data, identityCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache identity: %w", err)
	}

	return nil
}
