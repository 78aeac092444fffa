package main

import (
	"context"
	"flag"
	"time"

	"skillswap/internal/app"
	"skillswap/internal/config"
	"skillswap/internal/database/migration"
	"skillswap/internal/database/seeder"
	"skillswap/internal/pkg/logger"
	"skillswap/migrations"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply migrations and skip demo data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("", "seed")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.App.Environment, "seed")

	c, err := app.NewContainer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init container")
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := (migration.Runner{FS: migrations.FS}).Run(ctx, c.DB); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("migrations applied")

	if *migrateOnly {
		return
	}

	r := seeder.Runner{Seeders: seeder.Defaults()}
	if err := r.Run(ctx, c.DB); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("demo data seeded")
}
