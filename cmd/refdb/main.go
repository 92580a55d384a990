// Command refdb scrapes the reference pages and loads them into PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neexbeast/tripplanner/internal/config"
	"github.com/neexbeast/tripplanner/internal/logging"
	"github.com/neexbeast/tripplanner/internal/refdb"
	"github.com/neexbeast/tripplanner/internal/store"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	dotenvPath := flag.String("env-file", ".env", "optional .env file")
	scrapeOnly := flag.Bool("scrape-only", false, "scrape into the cache without touching the database")
	flag.Parse()

	cfg, err := config.Load(*configPath, *dotenvPath)
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env, os.Stdout)

	if err := run(cfg, *scrapeOnly, log); err != nil {
		log.Error("refdb exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, scrapeOnly bool, log *slog.Logger) error {
	if !scrapeOnly {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := store.Open(ctx, cfg.Cache.Backend, cfg.Cache.Dir, cfg.Cache.RedisURL, log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = closeCache() }()

	ref, err := refdb.NewScraper(cache, log).Scrape(ctx)
	if err != nil {
		return err
	}
	log.Info("reference scraped",
		"states", len(ref.States),
		"airports", len(ref.Airports),
		"city_areas", len(ref.CityAreas),
	)
	if scrapeOnly {
		return nil
	}

	pool, err := refdb.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := refdb.RunMigrations(ctx, pool, refdb.Migrations, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if err := refdb.Load(ctx, pool, ref); err != nil {
		return fmt.Errorf("loading reference tables: %w", err)
	}
	log.Info("reference tables loaded")
	return nil
}
