package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/roomsync/go/internal/dbconfig"
	"github.com/mcdev12/roomsync/go/internal/store"
	"github.com/rs/zerolog/log"
)

// setupDatabase opens the pgx pool. The same DSN also feeds the lib/pq
// listener, which needs its own connection for LISTEN.
func setupDatabase(ctx context.Context) (*store.Client, dbconfig.Config, error) {
	cfg := dbconfig.NewConfigFromEnv()

	client, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return client, cfg, nil
}
