package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripplanner/internal/config"
)

var allKeys = []string{
	"APP_ENV", "PORT", "DATABASE_URL", "BEARER_TOKEN", "MAPBOX_TOKEN", "ATTRACTION_LIMIT",
	"STATIC_DIR", "CACHE_BACKEND", "CACHE_DIR", "REDIS_URL", "OPENTRIPMAP_API_KEY",
	"WEATHERUNLOCKED_APP_ID", "WEATHERUNLOCKED_APP_KEY", "YELP_API_KEY", "WEATHER_ICON_BASE_URL",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.BackendFile, cfg.Cache.Backend)
	assert.Equal(t, "cache", cfg.Cache.Dir)
	assert.Equal(t, "static", cfg.StaticDir)
	assert.Equal(t, "https://www.weatherunlocked.com/Images/icons/1/", cfg.WeatherIconBase)
	assert.Zero(t, cfg.AttractionLimit)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ATTRACTION_LIMIT", "20")
	t.Setenv("YELP_API_KEY", "yelp")

	cfg, err := config.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, config.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 20, cfg.AttractionLimit)
	assert.Equal(t, "yelp", cfg.Providers.YelpKey)
}

func TestLoad_DotenvDoesNotOverrideEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("PORT=7000\nMAPBOX_TOKEN=pk.from-file\n"), 0o644))
	t.Setenv("PORT", "9000")

	cfg, err := config.Load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "pk.from-file", cfg.MapboxToken)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := config.Load("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
port: "8181"
cache:
  backend: file
  dir: /var/cache/planner
providers:
  opentripmap_api_key: otm
`), 0o644))

	cfg, err := config.Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "8181", cfg.Port)
	assert.Equal(t, "/var/cache/planner", cfg.Cache.Dir)
	assert.Equal(t, "otm", cfg.Providers.OpenTripMapKey)
}

func TestLoad_RedisWithoutURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_BACKEND", "redis")

	_, err := config.Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := config.Load("", "")
	require.Error(t, err)
}

func TestRequire(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.RequireProviders()
	require.Error(t, err)
	assert.Equal(t,
		"required settings not set: OPENTRIPMAP_API_KEY, WEATHERUNLOCKED_APP_ID, WEATHERUNLOCKED_APP_KEY, YELP_API_KEY",
		err.Error())

	cfg.Providers = config.Providers{OpenTripMapKey: "a", WeatherAppID: "b", WeatherAppKey: "c", YelpKey: "d"}
	require.NoError(t, cfg.RequireProviders())

	err = cfg.RequireServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BEARER_TOKEN")
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")

	require.Error(t, cfg.RequireDatabase())
	cfg.DatabaseURL = "postgres://localhost/ref"
	require.NoError(t, cfg.RequireDatabase())
}
