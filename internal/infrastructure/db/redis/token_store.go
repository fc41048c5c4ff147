package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenTTL bounds how long an abandoned session token lingers. The server
// decides actual validity.
const tokenTTL = 30 * 24 * time.Hour

// commander is the subset of *redis.Client the token store needs.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenStore keeps the session token in Redis.
// Key format: ratingclient:token:<name>
type TokenStore struct {
	client commander
	name   string
}

// NewTokenStore wraps a Redis client. name distinguishes several client
// profiles sharing one Redis database.
func NewTokenStore(client commander, name string) *TokenStore {
	return &TokenStore{client: client, name: name}
}

func (s *TokenStore) Load(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("token load: %w", err)
	}
	return token, token != "", nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key(), token, tokenTTL).Err(); err != nil {
		return fmt.Errorf("token save: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("token clear: %w", err)
	}
	return nil
}

func (s *TokenStore) key() string {
	return fmt.Sprintf("ratingclient:token:%s", s.name)
}
