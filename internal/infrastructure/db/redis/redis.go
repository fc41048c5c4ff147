package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config selects the Redis database holding the session token.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Key names the token among several client profiles.
	Key     string
	Timeout time.Duration
}

// Open dials Redis, pings it once so a misconfigured store fails at startup,
// and returns a TokenStore over the client. The close function releases the
// connection pool.
func Open(ctx context.Context, cfg Config) (*TokenStore, func() error, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewTokenStore(client, cfg.Key), client.Close, nil
}
