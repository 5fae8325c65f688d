package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/schoolerp/backend/internal/infrastructure/config"
)

// TokenDenylist revokes JWT tokens before they expire (e.g. on logout).
type TokenDenylist interface {
	// Revoke adds a token's JTI (JWT ID) to the denylist.
	// ttl should be set to the remaining time until token expiration.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks if a token's JTI is in the denylist
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeAllForUser revokes every token for a user (force logout all
	// sessions) by storing the invalidation timestamp; tokens issued before
	// it are rejected.
	RevokeAllForUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserTokenRevoked checks whether a token was issued before the user's
	// invalidation timestamp
	IsUserTokenRevoked(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
}

// RedisTokenDenylist implements TokenDenylist using Redis
type RedisTokenDenylist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenDenylist creates a new Redis-based token denylist
func NewRedisTokenDenylist(cfg config.RedisConfig) (*RedisTokenDenylist, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for token denylist: %w", err)
	}

	return &RedisTokenDenylist{
		client:    client,
		keyPrefix: "token:denylist:",
	}, nil
}

// NewRedisTokenDenylistWithClient creates a token denylist with an existing Redis client
func NewRedisTokenDenylistWithClient(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{
		client:    client,
		keyPrefix: "token:denylist:",
	}
}

// jtiKey returns the Redis key for a JTI
func (d *RedisTokenDenylist) jtiKey(jti string) string {
	return d.keyPrefix + "jti:" + jti
}

// userKey returns the Redis key for user token invalidation
func (d *RedisTokenDenylist) userKey(userID string) string {
	return d.keyPrefix + "user:" + userID
}

// Revoke adds a token's JTI to the denylist
func (d *RedisTokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := d.client.Set(ctx, d.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to denylist: %w", err)
	}
	return nil
}

// IsRevoked checks if a token's JTI is in the denylist
func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := d.client.Exists(ctx, d.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token denylist: %w", err)
	}
	return exists > 0, nil
}

// RevokeAllForUser stores the current timestamp as the user's invalidation
// time. Any token issued before this timestamp is considered revoked.
func (d *RedisTokenDenylist) RevokeAllForUser(ctx context.Context, userID string, ttl time.Duration) error {
	invalidationTime := time.Now().Unix()
	if err := d.client.Set(ctx, d.userKey(userID), invalidationTime, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserTokenRevoked checks if a token was issued before the user's invalidation timestamp
func (d *RedisTokenDenylist) IsUserTokenRevoked(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	invalidationTimeStr, err := d.client.Get(ctx, d.userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token revocation: %w", err)
	}

	var invalidationTime int64
	if _, err := fmt.Sscanf(invalidationTimeStr, "%d", &invalidationTime); err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}

	return tokenIssuedAt.Unix() <= invalidationTime, nil
}

// Ping reports whether the backing Redis instance is reachable.
func (d *RedisTokenDenylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (d *RedisTokenDenylist) Close() error {
	return d.client.Close()
}

// Ensure RedisTokenDenylist implements TokenDenylist
var _ TokenDenylist = (*RedisTokenDenylist)(nil)

// InMemoryTokenDenylist provides an in-memory implementation for testing.
// Not suitable for production with multiple instances.
type InMemoryTokenDenylist struct {
	mu                    sync.RWMutex
	revokedJTIs           map[string]time.Time // JTI -> expiration time
	userInvalidationTimes map[string]time.Time // userID -> invalidation time
}

// NewInMemoryTokenDenylist creates a new in-memory token denylist
func NewInMemoryTokenDenylist() *InMemoryTokenDenylist {
	return &InMemoryTokenDenylist{
		revokedJTIs:           make(map[string]time.Time),
		userInvalidationTimes: make(map[string]time.Time),
	}
}

// Revoke adds a token's JTI to the in-memory denylist
func (d *InMemoryTokenDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revokedJTIs[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks if a token's JTI is revoked (and not expired)
func (d *InMemoryTokenDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiration, exists := d.revokedJTIs[jti]
	if !exists {
		return false, nil
	}

	if time.Now().After(expiration) {
		delete(d.revokedJTIs, jti)
		return false, nil
	}

	return true, nil
}

// RevokeAllForUser revokes every token for a user
func (d *InMemoryTokenDenylist) RevokeAllForUser(_ context.Context, userID string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.userInvalidationTimes[userID] = time.Now()
	return nil
}

// IsUserTokenRevoked checks if a token was issued before the user's invalidation timestamp
func (d *InMemoryTokenDenylist) IsUserTokenRevoked(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	invalidationTime, exists := d.userInvalidationTimes[userID]
	if !exists {
		return false, nil
	}

	// UnixNano keeps sub-second precision for tests
	return tokenIssuedAt.UnixNano() <= invalidationTime.UnixNano(), nil
}

// Ping always succeeds for the in-memory implementation.
func (d *InMemoryTokenDenylist) Ping(_ context.Context) error {
	return nil
}

// Ensure InMemoryTokenDenylist implements TokenDenylist
var _ TokenDenylist = (*InMemoryTokenDenylist)(nil)
