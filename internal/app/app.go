// Package app wires the client: configuration, logging, token persistence,
// transport, the session manager and the synchronizer.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/ports"
	"github.com/storerate/rating-client/internal/core/service"
	"github.com/storerate/rating-client/internal/infrastructure/config"
	"github.com/storerate/rating-client/internal/infrastructure/queue"
	"github.com/storerate/rating-client/internal/infrastructure/restapi"
	"github.com/storerate/rating-client/internal/infrastructure/tokenstore"
)

// App holds the long-lived client components. Build it with New and release
// it with Close.
type App struct {
	Config  *config.Config
	Session *service.SessionManager
	Sync    *service.Synchronizer
	// Refresher reloads several collections concurrently.
	Refresher *queue.Dispatcher

	log     zerolog.Logger
	closers []func()
}

type Options struct {
	// Tokens overrides the configured token store.
	Tokens ports.TokenStore
	// Transport overrides the REST client built from cfg.API.
	Transport ports.Transport
	UserAgent string
}

// New builds the client and restores a persisted session if one exists.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, log: log}

	tokens := opts.Tokens
	if tokens == nil {
		store, closeStore, err := tokenstore.Open(ctx, cfg, log.With().Str("component", "tokenstore").Logger())
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		a.closers = append(a.closers, closeStore)
		tokens = store
	}

	transport := opts.Transport
	if transport == nil {
		transport = restapi.New(restapi.Options{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   cfg.API.Timeout,
			UserAgent: opts.UserAgent,
		}, log.With().Str("component", "restapi").Logger())
	}

	a.Session = service.NewSessionManager(transport, tokens, log.With().Str("component", "session").Logger())
	a.Session.Restore(ctx)

	a.Sync = service.NewSynchronizer(a.Session, log.With().Str("component", "sync").Logger())
	a.closers = append(a.closers, a.Sync.Close)

	a.Refresher = queue.NewDispatcher(0, a.Sync, log.With().Str("component", "refresher").Logger())
	a.Refresher.Start(context.WithoutCancel(ctx))
	a.closers = append(a.closers, a.Refresher.Stop)

	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
