package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment   string `mapstructure:"ENV"`
	DBDSN         string `mapstructure:"DB_DSN"`
	Storage       string `mapstructure:"STORAGE"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"` // пусто = встроенные миграции

	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisChannel string `mapstructure:"REDIS_CHANNEL"`

	SubmitGrace        time.Duration `mapstructure:"SUBMIT_GRACE"`
	SuggestGranularity time.Duration `mapstructure:"SUGGEST_GRANULARITY"`
	SuggestHorizon     time.Duration `mapstructure:"SUGGEST_HORIZON"`
	SuggestMax         int           `mapstructure:"SUGGEST_MAX"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	OtelEnabled bool `mapstructure:"OTEL_ENABLED"`
	OtelStdout  bool `mapstructure:"OTEL_STDOUT"`
}

var defaults = map[string]any{
	"ENV":                 "development",
	"DB_DSN":              "",
	"STORAGE":             StoragePostgres,
	"HTTP_ADDR":           ":8080",
	"TELEGRAM_TOKEN":      "",
	"MIGRATIONS_DIR":      "",
	"REDIS_ADDR":          "",
	"REDIS_CHANNEL":       "booking-events",
	"SUBMIT_GRACE":        "5m",
	"SUGGEST_GRANULARITY": "30m",
	"SUGGEST_HORIZON":     "336h",
	"SUGGEST_MAX":         5,
	"RATE_LIMIT_RPS":      20.0,
	"RATE_LIMIT_BURST":    40,
	"OTEL_ENABLED":        false,
	"OTEL_STDOUT":         false,
}

// Load читает .env (если есть) и окружение процесса
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper заполняет Config из v с умолчаниями и привязкой к окружению
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.SuggestMax < 1 {
		return fmt.Errorf("SUGGEST_MAX must be positive")
	}
	if c.SuggestGranularity <= 0 || c.SuggestHorizon < c.SuggestGranularity {
		return fmt.Errorf("SUGGEST_GRANULARITY must be positive and not above SUGGEST_HORIZON")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
