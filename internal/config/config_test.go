package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("EXCHANGE_API_KEY", "test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://restcountries.com", cfg.CountryAPI.BaseURL)
	assert.Equal(t, "https://v6.exchangerate-api.com", cfg.ExchangeAPI.BaseURL)
	assert.Equal(t, "USD", cfg.ExchangeAPI.ReferenceBase)
	assert.Equal(t, time.Hour, cfg.Cache.RateTTL)
	assert.Equal(t, 1000, cfg.Cache.RateSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.CountryTTL)
	assert.Equal(t, 500, cfg.Cache.CountrySize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CleanupInterval)
	assert.Equal(t, RateLimitMemory, cfg.RateLimit.Backend)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("EXCHANGE_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_RATE_TTL", "15m")
	t.Setenv("EXCHANGE_API_REFERENCE_BASE", " eur ")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_BACKEND", "Redis")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Cache.RateTTL)
	assert.Equal(t, "EUR", cfg.ExchangeAPI.ReferenceBase)
	assert.Equal(t, RateLimitRedis, cfg.RateLimit.Backend)
	assert.True(t, cfg.RedisEnabled())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
server:
  port: 7070
exchange_api:
  api_key: file-key
cache:
  rate_size: 10
rate_limit:
  daily_limit: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	// a set variable, even an empty one, overrides the file
	t.Setenv("EXCHANGE_API_KEY", "")
	require.NoError(t, os.Unsetenv("EXCHANGE_API_KEY"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "file-key", cfg.ExchangeAPI.APIKey)
	assert.Equal(t, 10, cfg.Cache.RateSize)
	assert.Equal(t, 5, cfg.RateLimit.DailyLimit)
	assert.Equal(t, 500, cfg.Cache.CountrySize)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:      ServerConfig{Port: 8080},
			ExchangeAPI: ExchangeAPIConfig{APIKey: "key"},
			Cache: CacheConfig{
				RateTTL: time.Hour, RateSize: 1, CountryTTL: time.Hour, CountrySize: 1, CleanupInterval: time.Minute,
			},
			Catalog:   CatalogConfig{RefreshInterval: time.Hour},
			RateLimit: RateLimitConfig{Enabled: true, Backend: RateLimitMemory, DailyLimit: 10},
		}
	}

	testCases := []struct {
		name          string
		mutate        func(*Config)
		expectedError string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.ExchangeAPI.APIKey = " " }, expectedError: "EXCHANGE_API_KEY"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, expectedError: "SERVER_PORT"},
		{name: "zero cache size", mutate: func(c *Config) { c.Cache.RateSize = 0 }, expectedError: "cache sizes"},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.CountryTTL = 0 }, expectedError: "cache durations"},
		{name: "zero refresh", mutate: func(c *Config) { c.Catalog.RefreshInterval = 0 }, expectedError: "CATALOG_REFRESH_INTERVAL"},
		{name: "zero daily limit", mutate: func(c *Config) { c.RateLimit.DailyLimit = 0 }, expectedError: "RATE_LIMIT_DAILY"},
		{name: "redis limiter without redis", mutate: func(c *Config) { c.RateLimit.Backend = RateLimitRedis; c.RateLimit.Window = time.Hour }, expectedError: "REDIS_ADDR"},
		{name: "unknown backend", mutate: func(c *Config) { c.RateLimit.Backend = "etcd" }, expectedError: "unknown RATE_LIMIT_BACKEND"},
		{name: "limiter disabled", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}
