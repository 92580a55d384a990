package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/tripplanner/internal/api"
	"github.com/neexbeast/tripplanner/internal/config"
	"github.com/neexbeast/tripplanner/internal/logging"
	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/provider"
	"github.com/neexbeast/tripplanner/internal/refdb"
	"github.com/neexbeast/tripplanner/internal/store"
	"github.com/neexbeast/tripplanner/internal/telemetry"
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
	log := logging.New(cfg.Env, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	ctx := context.Background()

	metrics, err := telemetry.Setup()
	if err != nil {
		return fmt.Errorf("setting up metrics: %w", err)
	}
	defer func() { _ = metrics.Shutdown(context.Background()) }()

	cache, closeCache, err := store.Open(ctx, cfg.Cache.Backend, cfg.Cache.Dir, cfg.Cache.RedisURL, log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = closeCache() }()
	log.Info("cache ready", "backend", cfg.Cache.Backend)

	limit := cfg.AttractionLimit
	if limit <= 0 {
		limit = planner.WebAttractionLimit
	}
	opts := []planner.Option{
		planner.WithAttractionLimit(limit),
		planner.WithRecorder(metrics.Recorder),
		planner.WithLogger(log),
	}

	// The reference database is optional: without it every city gets the
	// default search radius and ticket search is disabled.
	var (
		airports api.AirportFinder
		db       interface{ Ping(context.Context) error }
	)
	if cfg.DatabaseURL != "" {
		pool, err := refdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := refdb.RunMigrations(ctx, pool, refdb.Migrations, "migrations"); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")

		repo := refdb.NewRepository(pool)
		opts = append(opts, planner.WithRadiusLookup(repo))
		airports = repo
		db = repo
	} else {
		log.Warn("DATABASE_URL not set, ticket search disabled and default search radius used")
	}

	p := planner.New(cache,
		provider.NewGeoClient(cfg.Providers.OpenTripMapKey),
		provider.NewPOIClient(cfg.Providers.OpenTripMapKey),
		provider.NewWeatherClient(cfg.Providers.WeatherAppID, cfg.Providers.WeatherAppKey),
		provider.NewHotelClient(cfg.Providers.YelpKey),
		opts...,
	)

	handlers := api.NewHandlers(p, airports, cache, cfg.MapboxToken, log, api.WithIconBase(cfg.WeatherIconBase))
	router := api.NewRouter(handlers, api.RouterConfig{
		Token:     cfg.BearerToken,
		StaticDir: cfg.StaticDir,
		Metrics:   metrics.Handler,
	}, cache, db, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}
