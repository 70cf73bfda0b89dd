// Command migrate applies the embedded schema migrations and exits. The
// server also migrates on boot; this exists for running migrations ahead of
// a deploy.
package main

import (
	"context"
	"time"

	"github.com/caten-app/backend/internal/config"
	"github.com/caten-app/backend/internal/logging"
	"github.com/caten-app/backend/internal/repository/postgres"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := postgres.RunMigrations(ctx, cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	log.Info().Msg("migrations applied")
}
