// Command cachestats prints the number of entries in each planner namespace.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/neexbeast/tripplanner/internal/config"
	"github.com/neexbeast/tripplanner/internal/logging"
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
	log := logging.New(cfg.Env, os.Stderr)

	if err := run(cfg, log); err != nil {
		log.Error("cachestats exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	cache, closeCache, err := store.Open(ctx, cfg.Cache.Backend, cfg.Cache.Dir, cfg.Cache.RedisURL, log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = closeCache() }()

	counts, err := store.Count(ctx, cache)
	if err != nil {
		return err
	}
	for _, ns := range store.PlannerNamespaces() {
		fmt.Printf("%-26s %d\n", ns, counts[ns])
	}
	return nil
}
