// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"go-inventory-sales/pkg/database"
)

// DefaultJWTSecret is the development signing key used when JWT_SECRET is unset.
const DefaultJWTSecret = "your-super-secret-key-change-in-production"

// Config holds all environment configuration for the application.
type Config struct {
	Port     string `env:"PORT"      envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER"    envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"      envDefault:"localhost"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	DBPort      string `env:"DB_PORT"      envDefault:"5432"`
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"sales.db"`

	JWTSecret         string        `env:"JWT_SECRET"          envDefault:"your-super-secret-key-change-in-production"`
	JWTTTL            time.Duration `env:"JWT_TTL"             envDefault:"24h"`
	GoogleUserInfoURL string        `env:"GOOGLE_USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v3/userinfo"`
	AdminEmails       []string      `env:"ADMIN_EMAILS"        envSeparator:","`
	RequireAuth       bool          `env:"REQUIRE_AUTH"        envDefault:"false"`

	LowStockThreshold int `env:"LOW_STOCK_THRESHOLD" envDefault:"5"`

	RedisAddr             string        `env:"REDIS_ADDR"              envDefault:"localhost:6379"`
	OutboxStream          string        `env:"OUTBOX_STREAM"           envDefault:"sales:events"`
	PublisherPollInterval time.Duration `env:"PUBLISHER_POLL_INTERVAL" envDefault:"5s"`
	PublisherBatchSize    int           `env:"PUBLISHER_BATCH_SIZE"    envDefault:"10"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"inventory-sales-api"`
}

// LoadConfig reads an optional .env file and parses the environment into Config.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, relying on process environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == DefaultJWTSecret {
		if cfg.DBDriver != database.DriverSQLite {
			return nil, errors.New("JWT_SECRET must be set when running against " + cfg.DBDriver)
		}
		slog.Warn("JWT_SECRET is not set, signing tokens with the development default")
	}

	return cfg, nil
}

// DatabaseOptions resolves the driver and DSN for database.Connect.
func (c *Config) DatabaseOptions() database.Options {
	if c.DBDriver == database.DriverSQLite {
		return database.Options{Driver: database.DriverSQLite, DSN: c.SQLitePath}
	}

	dsn := c.DatabaseURL
	if dsn == "" {
		dsn = database.PostgresDSN(c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
	}
	return database.Options{Driver: c.DBDriver, DSN: dsn}
}
