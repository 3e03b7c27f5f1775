package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	BlobDir     string `mapstructure:"BLOB_DIR"`
	BlobBaseURL string `mapstructure:"BLOB_BASE_URL"`

	RedisURL     string `mapstructure:"REDIS_URL"`
	NotifyStream string `mapstructure:"NOTIFY_STREAM"`

	MaxUploadBytes          int64 `mapstructure:"MAX_UPLOAD_BYTES"`
	AllowPlaceholderAuthors bool  `mapstructure:"ALLOW_PLACEHOLDER_AUTHORS"`
	SearchPageSize          int   `mapstructure:"SEARCH_PAGE_SIZE"`
	ViewRatePerMinute       int   `mapstructure:"VIEW_RATE_PER_MINUTE"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"GIN_MODE":                  "release",
	"DB_DRIVER":                 "postgres",
	"DATABASE_DSN":              "host=localhost port=5432 user=portal password=portal dbname=portal sslmode=disable",
	"JWT_SECRET":                "",
	"BLOB_DIR":                  "data/blobs",
	"BLOB_BASE_URL":             "/api/v1/files",
	"REDIS_URL":                 "",
	"NOTIFY_STREAM":             "portal:notifications",
	"MAX_UPLOAD_BYTES":          int64(500 << 20),
	"ALLOW_PLACEHOLDER_AUTHORS": true,
	"SEARCH_PAGE_SIZE":          9,
	"VIEW_RATE_PER_MINUTE":      30,
	"LOG_LEVEL":                 "info",
}

// Load reads configuration from the environment after loading any .env files.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.SearchPageSize <= 0 {
		return errors.New("SEARCH_PAGE_SIZE must be positive")
	}
	if c.ViewRatePerMinute < 0 {
		return errors.New("VIEW_RATE_PER_MINUTE must not be negative; 0 disables the limit")
	}
	return nil
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
