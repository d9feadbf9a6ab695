package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &Config{}
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if loaded, err := loadConfig(configPath); err == nil {
		config = loaded
	} else if !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	topicProvider, err := setupTopicProvider(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up topic provider")
	}

	client, dbCfg, err := setupDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer client.Close()

	natsCfg := feed.DefaultNATSConfig()
	natsCfg.URL = getEnv("NATS_URL", natsCfg.URL)
	broker, err := feed.NewBroker(natsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer broker.Close()

	services := setupServices(client, broker, topicProvider)

	listenerCfg := feed.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listener, err := feed.NewListener(services.FeedRepo, broker, listenerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start feed listener")
	}
	go func() {
		if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed listener stopped")
		}
	}()

	hub := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), services.Manager)
	services.Manager.SetBroadcaster(hub)
	go hub.Start(ctx)

	server := setupServer(services, hub)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	services.Manager.Shutdown()
}
