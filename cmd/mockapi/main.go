// Command mockapi serves the ratings REST API from memory for local use.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storerate/rating-client/internal/infrastructure/config"
	"github.com/storerate/rating-client/internal/mockapi"
	"github.com/storerate/rating-client/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "mockapi"})
	log := logger.Component("http")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := mockapi.NewRouter(ctx, mockapi.Options{
		JWTSecret: cfg.MockAPI.JWTSecret,
		Seeds:     mockapi.DefaultSeeds,
		Registry:  prometheus.NewRegistry(),
		Log:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		log.Info().Str("port", cfg.MockAPI.Port).Msg("mock API listening")
		if err := e.Start(":" + cfg.MockAPI.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
