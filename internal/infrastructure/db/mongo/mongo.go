package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 5 * time.Second

// Config selects the database and document holding the session token.
type Config struct {
	URI      string
	Database string
	// Key is the _id of the token document.
	Key     string
	AppName string
	Timeout time.Duration
}

// Open connects to MongoDB, pings the primary and returns a TokenRepository
// over cfg.Database. The close function disconnects the client.
func Open(ctx context.Context, cfg Config) (*TokenRepository, func(context.Context) error, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return NewTokenRepository(client.Database(cfg.Database), cfg.Key), client.Disconnect, nil
}
