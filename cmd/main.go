package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meeting-agent-relay/internal/app"
	"meeting-agent-relay/internal/config"
	"meeting-agent-relay/internal/events"
	"meeting-agent-relay/internal/httpapi"
	"meeting-agent-relay/internal/observability"
	"meeting-agent-relay/internal/observability/logging"
	"meeting-agent-relay/internal/relay"
	"meeting-agent-relay/internal/storage"
	"meeting-agent-relay/internal/transcribe/mock"
)

func main() {
	cfg := config.Load()
	application := app.New("meeting-relay-server", cfg)
	logger := application.Logger

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}

	// Downstream transcript publisher (log-only unless Kafka is enabled)
	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	store := &storage.Store{
		Dir:     cfg.Persistence.Dir,
		Ext:     cfg.Persistence.Ext,
		Enabled: cfg.Persistence.Enabled,
	}

	dispatcher := relay.NewDispatcher(store, mock.New(), publisher, logging.WithComponent("dispatch"))
	server := relay.NewServer(dispatcher)

	obs := observability.NewServer(cfg.Observability.HTTPAddr)
	obs.Start()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Relay.HTTPPort,
		Handler: httpapi.NewRouter(cfg.Relay.WSPath, server),
	}

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("wsPath", cfg.Relay.WSPath).
			Bool("persistence", cfg.Persistence.Enabled).
			Msg("relay server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("relay server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("relay server shutdown failed")
	}
	if err := obs.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("observability server shutdown failed")
	}
}
