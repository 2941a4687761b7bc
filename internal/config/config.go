package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Provider struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Config struct {
	Env           string        `mapstructure:"env"`
	ListenAddr    string        `mapstructure:"listen_addr"`
	DatabaseURL   string        `mapstructure:"database_url"`
	StoreBackend  string        `mapstructure:"store_backend"`
	S3Bucket      string        `mapstructure:"s3_bucket"`
	S3Prefix      string        `mapstructure:"s3_prefix"`
	EnrichWorkers int           `mapstructure:"enrich_workers"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	CountryCode   string        `mapstructure:"country_code"`
	SearchLimit   int           `mapstructure:"search_limit"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	Provider      Provider      `mapstructure:"provider"`
}

// ErrNoDatabase is returned alongside a usable Config when DATABASE_URL is
// unset. Not fatal for local runs; callers decide.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

var envBindings = map[string]string{
	"env":               "APP_ENV",
	"listen_addr":       "LISTEN_ADDR",
	"database_url":      "DATABASE_URL",
	"store_backend":     "STORE_BACKEND",
	"s3_bucket":         "S3_BUCKET",
	"s3_prefix":         "S3_PREFIX",
	"enrich_workers":    "ENRICH_WORKERS",
	"poll_interval":     "POLL_INTERVAL",
	"country_code":      "COUNTRY_CODE",
	"search_limit":      "SEARCH_LIMIT",
	"log_level":         "LOG_LEVEL",
	"log_format":        "LOG_FORMAT",
	"provider.base_url": "PROVIDER_BASE_URL",
	"provider.api_key":  "PROVIDER_API_KEY",
	"provider.timeout":  "PROVIDER_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("store_backend", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "enrichments/")
	v.SetDefault("enrich_workers", 0)
	v.SetDefault("poll_interval", 500*time.Millisecond)
	v.SetDefault("country_code", "fr")
	v.SetDefault("search_limit", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("provider.base_url", "https://api.apigee.france-db.example.com")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", 10*time.Second)
}

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendMemory
		if cfg.DatabaseURL != "" {
			cfg.StoreBackend = BackendPostgres
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.DatabaseURL == "" {
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("store backend %q requires DATABASE_URL", c.StoreBackend)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("store backend %q requires S3_BUCKET", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("search_limit must be positive, got %d", c.SearchLimit)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.Provider.Timeout)
	}
	return nil
}
