package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/yungbote/xapi-mis-backend/internal/data/db"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type Config struct {
	LogMode string `envconfig:"LOG_MODE" default:"development"`
	Port    string `envconfig:"PORT" default:"8080"`

	DBDriver         string `envconfig:"DB_DRIVER" default:"postgres"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`
	PostgresName     string `envconfig:"POSTGRES_NAME" default:"xapi_mis"`
	PostgresDSN      string `envconfig:"POSTGRES_DSN"`
	SQLitePath       string `envconfig:"SQLITE_PATH" default:"xapi-mis.db"`

	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"30s"`

	CORSAllowOrigins []string      `envconfig:"CORS_ALLOW_ORIGINS"`
	ReadTimeout      time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout     time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`

	Otel observability.OtelConfig `ignored:"true"`
}

// LoadConfig reads the process environment. OTel settings keep their own
// OTEL_* names.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Otel); err != nil {
		return Config{}, fmt.Errorf("load otel config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":"); cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg, nil
}

func (c Config) Address() string { return ":" + c.Port }

func (c Config) DBOptions() db.Options {
	return db.Options{
		Driver: c.DBDriver,
		Postgres: db.PostgresOptions{
			DSN:      c.PostgresDSN,
			Host:     c.PostgresHost,
			Port:     c.PostgresPort,
			User:     c.PostgresUser,
			Password: c.PostgresPassword,
			Name:     c.PostgresName,
		},
		SQLitePath: c.SQLitePath,
	}
}

// Log writes the resolved config without credentials.
func (c Config) Log(log *logger.Logger) {
	log.Info("config loaded",
		"log_mode", c.LogMode,
		"port", c.Port,
		"db_driver", c.DBDriver,
		"postgres_host", c.PostgresHost,
		"postgres_name", c.PostgresName,
		"sqlite_path", c.SQLitePath,
		"redis_addr", c.RedisAddr,
		"dashboard_cache_ttl", c.DashboardCacheTTL.String(),
		"cors_allow_origins", c.CORSAllowOrigins,
		"otel_enabled", c.Otel.Enabled,
	)
}
