package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Addr string

	Store       string
	DatabaseDSN string
	Migrate     bool

	RedisAddr          string
	UsageFlushInterval time.Duration
	UsageTimeout       time.Duration

	AdminJWTSecret string
	CORSOrigins    []string

	RateLimitRPS   float64
	RateLimitBurst float64

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file (missing files are ignored) and then the
// process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Addr:        getenv("ADDR"),
		DatabaseDSN: getenv("DATABASE_DSN"),
		Store:       strings.ToLower(getenv("STORE")),
		RedisAddr:   getenv("REDIS_ADDR"),

		AdminJWTSecret: getenv("ADMIN_JWT_SECRET"),
		LogLevel:       orDefault(getenv("LOG_LEVEL"), "info"),
		LogFormat:      orDefault(getenv("LOG_FORMAT"), "json"),
	}

	if cfg.Addr == "" {
		port := orDefault(getenv("PORT"), "8080")
		cfg.Addr = ":" + port
	}

	if cfg.Store == "" {
		cfg.Store = StoreMemory
		if cfg.DatabaseDSN != "" {
			cfg.Store = StorePostgres
		}
	}
	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseDSN == "" {
			return nil, errors.New("DATABASE_DSN not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}

	if cfg.AdminJWTSecret == "" {
		return nil, errors.New("ADMIN_JWT_SECRET not set")
	}

	var err error
	if cfg.Migrate, err = parseBool(getenv, "MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.UsageFlushInterval, err = parseDuration(getenv, "USAGE_FLUSH_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.UsageTimeout, err = parseDuration(getenv, "USAGE_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = parseFloat(getenv, "RATE_LIMIT_RPS", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseFloat(getenv, "RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(orDefault(getenv("CORS_ORIGINS"), "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func parseFloat(getenv func(string) string, key string, def float64) (float64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return f, nil
}
