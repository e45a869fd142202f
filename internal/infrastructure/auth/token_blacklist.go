package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before their natural expiry.
// Single tokens are revoked on logout; all of a user's tokens are revoked when the user is blocked.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const blacklistPrefix = "shop:token:"

// RedisTokenBlacklist keeps revocations in Redis so every instance sees them
type RedisTokenBlacklist struct {
	client redis.UniversalClient
}

// NewRedisTokenBlacklist wraps an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

func (b *RedisTokenBlacklist) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	err := b.client.Set(ctx, blacklistPrefix+"user:"+userID, time.Now().Unix(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, blacklistPrefix+"user:"+userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is the single-instance fallback when Redis is disabled
type InMemoryTokenBlacklist struct {
	mu        sync.Mutex
	tokens    map[string]time.Time
	revokedAt map[string]time.Time
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:    make(map[string]time.Time),
		revokedAt: make(map[string]time.Time),
	}
}

func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = time.Now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revokedAt[userID] = time.Now()
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	at, ok := b.revokedAt[userID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(at), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
