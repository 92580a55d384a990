package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neexbeast/tripplanner/internal/cli"
	"github.com/neexbeast/tripplanner/internal/config"
	"github.com/neexbeast/tripplanner/internal/logging"
	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/provider"
	"github.com/neexbeast/tripplanner/internal/refdb"
	"github.com/neexbeast/tripplanner/internal/store"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	dotenvPath := flag.String("env-file", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *dotenvPath)
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}
	// Prompts go to stdout, so logs go to stderr.
	log := logging.New(cfg.Env, os.Stderr)

	if err := run(cfg, log); err != nil {
		log.Error("planner exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.RequireProviders(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := store.Open(ctx, cfg.Cache.Backend, cfg.Cache.Dir, cfg.Cache.RedisURL, log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = closeCache() }()

	limit := cfg.AttractionLimit
	if limit <= 0 {
		limit = planner.CLIAttractionLimit
	}
	opts := []planner.Option{planner.WithAttractionLimit(limit), planner.WithLogger(log)}

	if cfg.DatabaseURL != "" {
		pool, err := refdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		opts = append(opts, planner.WithRadiusLookup(refdb.NewRepository(pool)))
	}

	p := planner.New(cache,
		provider.NewGeoClient(cfg.Providers.OpenTripMapKey),
		provider.NewPOIClient(cfg.Providers.OpenTripMapKey),
		provider.NewWeatherClient(cfg.Providers.WeatherAppID, cfg.Providers.WeatherAppKey),
		provider.NewHotelClient(cfg.Providers.YelpKey),
		opts...,
	)

	if err := cli.New(p, cli.WithLogger(log)).Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
