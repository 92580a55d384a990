// Package config loads settings from an optional YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds the settings of every binary. Each binary checks the subset it
// needs with the Require methods.
type Config struct {
	Env             string    `yaml:"env" env:"APP_ENV" env-default:"development"`
	Port            string    `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL     string    `yaml:"database_url" env:"DATABASE_URL"`
	BearerToken     string    `yaml:"bearer_token" env:"BEARER_TOKEN"`
	MapboxToken     string    `yaml:"mapbox_token" env:"MAPBOX_TOKEN"`
	AttractionLimit int       `yaml:"attraction_limit" env:"ATTRACTION_LIMIT"`
	StaticDir       string    `yaml:"static_dir" env:"STATIC_DIR" env-default:"static"`
	WeatherIconBase string    `yaml:"weather_icon_base_url" env:"WEATHER_ICON_BASE_URL" env-default:"https://www.weatherunlocked.com/Images/icons/1/"`
	Cache           Cache     `yaml:"cache"`
	Providers       Providers `yaml:"providers"`
}

// Cache selects the store backend for the planner namespaces.
type Cache struct {
	Backend  string `yaml:"backend" env:"CACHE_BACKEND" env-default:"file"`
	Dir      string `yaml:"dir" env:"CACHE_DIR" env-default:"cache"`
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
}

// Providers holds the upstream API credentials.
type Providers struct {
	OpenTripMapKey string `yaml:"opentripmap_api_key" env:"OPENTRIPMAP_API_KEY"`
	WeatherAppID   string `yaml:"weatherunlocked_app_id" env:"WEATHERUNLOCKED_APP_ID"`
	WeatherAppKey  string `yaml:"weatherunlocked_app_key" env:"WEATHERUNLOCKED_APP_KEY"`
	YelpKey        string `yaml:"yelp_api_key" env:"YELP_API_KEY"`
}

// Load reads dotenvPath (if it exists) into the environment without
// overriding variables that are already set, then fills a Config from
// configPath (if non-empty) and the environment.
func Load(configPath, dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", dotenvPath, err)
		}
	}

	cfg := &Config{}
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment variables: %w", err)
	}

	if err := cfg.validateCache(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case BackendFile:
		return nil
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
		return nil
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want %s or %s)", c.Cache.Backend, BackendFile, BackendRedis)
	}
}

// RequireProviders checks the credentials of the three external APIs.
func (c *Config) RequireProviders() error {
	return requireAll(map[string]string{
		"OPENTRIPMAP_API_KEY":     c.Providers.OpenTripMapKey,
		"WEATHERUNLOCKED_APP_ID":  c.Providers.WeatherAppID,
		"WEATHERUNLOCKED_APP_KEY": c.Providers.WeatherAppKey,
		"YELP_API_KEY":            c.Providers.YelpKey,
	})
}

// RequireServer checks what cmd/server needs beyond the provider keys.
func (c *Config) RequireServer() error {
	if err := c.RequireProviders(); err != nil {
		return err
	}
	return requireAll(map[string]string{
		"BEARER_TOKEN": c.BearerToken,
		"MAPBOX_TOKEN": c.MapboxToken,
	})
}

// RequireDatabase checks DATABASE_URL.
func (c *Config) RequireDatabase() error {
	return requireAll(map[string]string{"DATABASE_URL": c.DatabaseURL})
}

func requireAll(vals map[string]string) error {
	var missing []string
	for k, v := range vals {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("required settings not set: %s", strings.Join(missing, ", "))
}
