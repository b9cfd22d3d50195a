// Package config loads process configuration from an optional YAML file,
// a .env file and SHOPLEDGER_* environment variables (highest precedence).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Idempotency     bool          `mapstructure:"idempotency"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type StorageConfig struct {
	Driver           string        `mapstructure:"driver"`
	DatabaseURL      string        `mapstructure:"database_url"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	Migrate          bool          `mapstructure:"migrate"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type NumberingConfig struct {
	// Strategy is "strict" or "cached"
	Strategy  string `mapstructure:"strategy"`
	RangeSize int64  `mapstructure:"range_size"`
}

type AlertConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	LowStockRule string `mapstructure:"low_stock_rule"`
	ExpiryRule   string `mapstructure:"expiry_rule"`
}

type WorkerConfig struct {
	OutboxInterval    time.Duration `mapstructure:"outbox_interval"`
	OutboxBatchSize   int           `mapstructure:"outbox_batch_size"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	ReconcileFix      bool          `mapstructure:"reconcile_fix"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
	Numbering NumberingConfig `mapstructure:"numbering"`
	Alerts    AlertConfig     `mapstructure:"alerts"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.idempotency", true)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.max_conns", 10)
	v.SetDefault("storage.min_conns", 1)
	v.SetDefault("storage.statement_timeout", 30*time.Second)
	v.SetDefault("storage.migrate", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("numbering.strategy", "strict")
	v.SetDefault("numbering.range_size", 50)

	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.low_stock_rule", "stock <= reorder_level")
	v.SetDefault("alerts.expiry_rule", "days_to_expiry >= 0 && days_to_expiry <= 30")

	v.SetDefault("worker.outbox_interval", 500*time.Millisecond)
	v.SetDefault("worker.outbox_batch_size", 100)
	v.SetDefault("worker.reconcile_interval", time.Hour)
	v.SetDefault("worker.reconcile_fix", false)
	v.SetDefault("worker.cleanup_interval", time.Hour)
}

// Load reads configuration. path may point to a YAML file; when empty,
// ./config.yaml is used if present.
// Environment overrides use the SHOPLEDGER_ prefix, e.g. SHOPLEDGER_STORAGE_DRIVER=postgres.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SHOPLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("config: storage.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Numbering.Strategy {
	case "strict", "cached":
	default:
		return fmt.Errorf("config: unknown numbering strategy %q", c.Numbering.Strategy)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
