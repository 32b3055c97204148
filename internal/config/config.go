package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

type Config struct {
	LogLevel    string            `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Server      ServerConfig      `yaml:"server"`
	CountryAPI  CountryAPIConfig  `yaml:"country_api"`
	ExchangeAPI ExchangeAPIConfig `yaml:"exchange_api"`
	Cache       CacheConfig       `yaml:"cache"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Redis       RedisConfig       `yaml:"redis"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type CountryAPIConfig struct {
	BaseURL string        `yaml:"base_url" env:"COUNTRY_API_BASE_URL" env-default:"https://restcountries.com"`
	Timeout time.Duration `yaml:"timeout" env:"COUNTRY_API_TIMEOUT" env-default:"10s"`
}

type ExchangeAPIConfig struct {
	BaseURL       string        `yaml:"base_url" env:"EXCHANGE_API_BASE_URL" env-default:"https://v6.exchangerate-api.com"`
	APIKey        string        `yaml:"api_key" env:"EXCHANGE_API_KEY"`
	Timeout       time.Duration `yaml:"timeout" env:"EXCHANGE_API_TIMEOUT" env-default:"10s"`
	ReferenceBase string        `yaml:"reference_base" env:"EXCHANGE_API_REFERENCE_BASE" env-default:"USD"`
}

type CacheConfig struct {
	RateTTL         time.Duration `yaml:"rate_ttl" env:"CACHE_RATE_TTL" env-default:"60m"`
	RateSize        int           `yaml:"rate_size" env:"CACHE_RATE_SIZE" env-default:"1000"`
	CountryTTL      time.Duration `yaml:"country_ttl" env:"CACHE_COUNTRY_TTL" env-default:"24h"`
	CountrySize     int           `yaml:"country_size" env:"CACHE_COUNTRY_SIZE" env-default:"500"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CACHE_CLEANUP_INTERVAL" env-default:"5m"`
}

type CatalogConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"CATALOG_REFRESH_INTERVAL" env-default:"24h"`
	SnapshotKey     string        `yaml:"snapshot_key" env:"CATALOG_SNAPSHOT_KEY" env-default:"currency:catalog:snapshot"`
}

type RateLimitConfig struct {
	Enabled    bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Backend    string        `yaml:"backend" env:"RATE_LIMIT_BACKEND" env-default:"memory"`
	DailyLimit int           `yaml:"daily_limit" env:"RATE_LIMIT_DAILY" env-default:"1000"`
	Window     time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"24h"`
}

// RedisConfig is optional; an empty Addr disables every redis-backed
// component.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// LoadConfig reads the YAML file named by CONFIG_PATH when set, with
// environment variables taking precedence, and the environment alone
// otherwise.
func LoadConfig() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.ExchangeAPI.ReferenceBase = strings.ToUpper(strings.TrimSpace(cfg.ExchangeAPI.ReferenceBase))
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.ExchangeAPI.APIKey) == "" {
		problems = append(problems, "EXCHANGE_API_KEY is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("SERVER_PORT %d is out of range", c.Server.Port))
	}
	if c.Cache.RateSize <= 0 || c.Cache.CountrySize <= 0 {
		problems = append(problems, "cache sizes must be positive")
	}
	if c.Cache.RateTTL <= 0 || c.Cache.CountryTTL <= 0 || c.Cache.CleanupInterval <= 0 {
		problems = append(problems, "cache durations must be positive")
	}
	if c.Catalog.RefreshInterval <= 0 {
		problems = append(problems, "CATALOG_REFRESH_INTERVAL must be positive")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.DailyLimit <= 0 {
			problems = append(problems, "RATE_LIMIT_DAILY must be positive")
		}
		switch c.RateLimit.Backend {
		case RateLimitMemory:
		case RateLimitRedis:
			if c.Redis.Addr == "" {
				problems = append(problems, "RATE_LIMIT_BACKEND=redis needs REDIS_ADDR")
			}
			if c.RateLimit.Window <= 0 {
				problems = append(problems, "RATE_LIMIT_WINDOW must be positive")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
