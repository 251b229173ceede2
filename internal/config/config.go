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

type Config struct {
	HTTPPort       string        `mapstructure:"http_port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	DatabaseURL       string        `mapstructure:"database_url"`
	DBMaxOpenConns    int           `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int           `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `mapstructure:"db_conn_max_lifetime"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	PageSize       int    `mapstructure:"page_size"`
	MediaRoot      string `mapstructure:"media_root"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`

	ApplyRateLimit  int           `mapstructure:"apply_rate_limit"`
	ApplyRateWindow time.Duration `mapstructure:"apply_rate_window"`
	RedisAddr       string        `mapstructure:"redis_addr"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

var defaults = map[string]interface{}{
	"http_port":            "8080",
	"request_timeout":      "10s",
	"database_url":         "",
	"db_max_open_conns":    25,
	"db_max_idle_conns":    10,
	"db_conn_max_lifetime": "30m",
	"jwt_secret":           "",
	"jwt_ttl":              "24h",
	"page_size":            10,
	"media_root":           "media",
	"max_upload_bytes":     5 << 20,
	"log_level":            "info",
	"log_format":           "json",
	"cors_allowed_origins": "*",
	"apply_rate_limit":     3,
	"apply_rate_window":    "1m",
	"redis_addr":           "",
	"gemini_api_key":       "",
	"gemini_model":         "gemini-2.5-flash",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return cfg, nil
}

// Require reports every listed key that is empty.
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		switch key {
		case "database_url":
			if c.DatabaseURL == "" {
				missing = append(missing, "DATABASE_URL")
			}
		case "jwt_secret":
			if c.JWTSecret == "" {
				missing = append(missing, "JWT_SECRET")
			}
		default:
			return fmt.Errorf("unknown config key %q", key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
