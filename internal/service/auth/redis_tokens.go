package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps one live refresh token per account in Redis,
// expiring with the token itself.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a Redis-backed token store
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func refreshKey(accountID uuid.UUID) string {
	return fmt.Sprintf("auth:refresh:%s", accountID)
}

// SaveRefreshToken stores the token with the given TTL, replacing any
// previously issued one
func (s *RedisTokenStore) SaveRefreshToken(ctx context.Context, accountID uuid.UUID, token string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKey(accountID), token, ttl).Err()
}

// GetRefreshToken returns the stored token, or an error if none is live
func (s *RedisTokenStore) GetRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	return s.client.Get(ctx, refreshKey(accountID)).Result()
}

// DeleteRefreshToken revokes the stored token
func (s *RedisTokenStore) DeleteRefreshToken(ctx context.Context, accountID uuid.UUID) error {
	return s.client.Del(ctx, refreshKey(accountID)).Err()
}
