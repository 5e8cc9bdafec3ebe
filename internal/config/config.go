package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	StoreDriver string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string        `env:"DATABASE_URL"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	DefaultCurrency     string        `env:"DEFAULT_CURRENCY" envDefault:"TWD"`
	RateLookupTimeout   time.Duration `env:"RATE_LOOKUP_TIMEOUT" envDefault:"3s"`
	RateStalenessWindow time.Duration `env:"RATE_STALENESS_WINDOW" envDefault:"24h"`
	MultiProviderLimit  int           `env:"MULTI_PROVIDER_LIMIT" envDefault:"5"`
	RateFeedURL         string        `env:"RATE_FEED_URL" envDefault:"http://mock-rates:8081"`
	RateSyncInterval    time.Duration `env:"RATE_SYNC_INTERVAL" envDefault:"0s"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`

	// MigrationsDir, when set, is applied to the database at startup.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	IdempotencyCleanupInterval time.Duration `env:"IDEMPOTENCY_CLEANUP_INTERVAL" envDefault:"1h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MultiProviderLimit <= 0 {
		return fmt.Errorf("MULTI_PROVIDER_LIMIT must be positive, got %d", c.MultiProviderLimit)
	}
	if c.RateLookupTimeout <= 0 {
		return fmt.Errorf("RATE_LOOKUP_TIMEOUT must be positive")
	}
	return nil
}
