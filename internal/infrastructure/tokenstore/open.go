package tokenstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/ports"
	"github.com/storerate/rating-client/internal/infrastructure/config"
	"github.com/storerate/rating-client/internal/infrastructure/db/mongo"
	"github.com/storerate/rating-client/internal/infrastructure/db/redis"
)

// Open connects the backend named by cfg.Token.Store. The returned close
// function releases any connection and is never nil.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.TokenStore, func(), error) {
	noop := func() {}

	switch cfg.Token.Store {
	case config.TokenStoreMemory:
		return NewMemory(), noop, nil

	case config.TokenStoreFile:
		path := cfg.Token.File
		if path == "" {
			p, err := DefaultFilePath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		log.Debug().Str("path", path).Msg("using file token store")
		return NewFile(path, cfg.Token.Key), noop, nil

	case config.TokenStoreRedis:
		store, closeFn, err := redis.Open(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Token.Key,
		})
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Str("addr", cfg.Redis.Addr).Msg("using redis token store")
		return store, func() {
			if err := closeFn(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
		}, nil

	case config.TokenStoreMongo:
		store, disconnect, err := mongo.Open(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Key:      cfg.Token.Key,
			AppName:  "ratingctl",
		})
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Str("database", cfg.Mongo.Database).Msg("using mongo token store")
		return store, func() {
			if err := disconnect(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}, nil

	default:
		return nil, noop, fmt.Errorf("unknown token store %q", cfg.Token.Store)
	}
}
