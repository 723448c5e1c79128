package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardmaker/cardmaker/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for verified-token cache.
	authCachePrefix = "auth:user:"
	// authCacheTTL is the maximum time a verified token stays cached.
	// Entries expire sooner when the token itself expires sooner.
	authCacheTTL = 5 * time.Minute
)

// CachedUser is the subset of a user stored against a verified token.
// Salts and password hashes are never cached.
type CachedUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Anonymous bool   `json:"anonymous"`
}

// GetAuthUser retrieves a cached user by token cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthUser(ctx context.Context, cacheKey string) (*model.User, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.User{
		ID:        cached.ID,
		Username:  cached.Username,
		Anonymous: cached.Anonymous,
	}, nil
}

// SetAuthUser caches a verified token's user until the token expires,
// capped at authCacheTTL. Already-expired tokens are not cached.
func (c *Cache) SetAuthUser(ctx context.Context, cacheKey string, user *model.User, tokenExpiresAt time.Time) error {
	ttl := authCacheTTL
	if until := time.Until(tokenExpiresAt); until < ttl {
		ttl = until
	}
	if ttl <= 0 {
		return nil
	}

	key := authCachePrefix + cacheKey

	cached := CachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Anonymous: user.Anonymous,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal cached user: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// DeleteAuthUser removes a cached token entry.
func (c *Cache) DeleteAuthUser(ctx context.Context, cacheKey string) error {
	key := authCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
