package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ReferentialMode controls whether observations may name a field that does
// not exist.
type ReferentialMode string

const (
	// ReferentialLenient stores field_id as given, without checking it.
	ReferentialLenient ReferentialMode = "lenient"
	// ReferentialStrict rejects an observation whose field_id has no row.
	ReferentialStrict ReferentialMode = "strict"
)

// Config holds process configuration. Fields carry yaml tags so a CONFIG_FILE
// can override anything set through the environment.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	ReferentialMode      ReferentialMode `yaml:"referential_mode"`
	CheckCoordinateRange bool            `yaml:"check_coordinate_range"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	WriteRateLimit float64       `yaml:"write_rate_limit"`
	WriteBurst     int           `yaml:"write_burst"`

	DBMaxConns  int           `yaml:"db_max_conns"`
	DBSlowQuery time.Duration `yaml:"db_slow_query"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:            "5050",
		AllowedOrigins:  []string{"http://localhost:5173"},
		ReferentialMode: ReferentialLenient,
		RequestTimeout:  15 * time.Second,
		WriteRateLimit:  20,
		WriteBurst:      40,
		DBMaxConns:      20,
		DBSlowQuery:     100 * time.Millisecond,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads .env.local (if present), then environment variables, then the
// YAML file named by CONFIG_FILE (if set), and validates the result.
//
// Environment variables:
//   - PORT (default: 5050)
//   - DATABASE_URL (required)
//   - ALLOWED_ORIGINS: comma-separated CORS allow-list
//   - REFERENTIAL_MODE: "lenient" or "strict" (default: lenient)
//   - CHECK_COORDINATE_RANGE: reject lon/lat outside WGS84 bounds (default: false)
//   - REQUEST_TIMEOUT: e.g. "15s"
//   - WRITE_RATE_LIMIT, WRITE_BURST: token bucket for POST routes
//   - DB_MAX_CONNS, DB_SLOW_QUERY: pool size and slow query log threshold
//   - LOG_LEVEL (debug|info|warn|error), LOG_FORMAT (json|console)
//   - CONFIG_FILE: optional YAML overlay
func Load() (Config, error) {
	_ = godotenv.Load(".env.local")

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return Config{}, err
	}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from defaults plus whatever getenv returns. It does
// not validate.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	if v := get("PORT"); v != "" {
		cfg.Port = v
	}
	cfg.DatabaseURL = get("DATABASE_URL")
	if v := get("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := get("REFERENTIAL_MODE"); v != "" {
		cfg.ReferentialMode = ReferentialMode(strings.ToLower(v))
	}
	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := get("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	var errs []error
	parse := func(key string, fn func(string) error) {
		if v := get(key); v != "" {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	parse("CHECK_COORDINATE_RANGE", func(v string) (err error) {
		cfg.CheckCoordinateRange, err = strconv.ParseBool(v)
		return err
	})
	parse("REQUEST_TIMEOUT", func(v string) (err error) {
		cfg.RequestTimeout, err = time.ParseDuration(v)
		return err
	})
	parse("WRITE_RATE_LIMIT", func(v string) (err error) {
		cfg.WriteRateLimit, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("WRITE_BURST", func(v string) (err error) {
		cfg.WriteBurst, err = strconv.Atoi(v)
		return err
	})
	parse("DB_MAX_CONNS", func(v string) (err error) {
		cfg.DBMaxConns, err = strconv.Atoi(v)
		return err
	})
	parse("DB_SLOW_QUERY", func(v string) (err error) {
		cfg.DBSlowQuery, err = time.ParseDuration(v)
		return err
	})

	return cfg, errors.Join(errs...)
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	switch c.ReferentialMode {
	case ReferentialLenient, ReferentialStrict:
	default:
		errs = append(errs, fmt.Errorf("REFERENTIAL_MODE must be lenient or strict, got %q", c.ReferentialMode))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.WriteRateLimit <= 0 || c.WriteBurst <= 0 {
		errs = append(errs, errors.New("WRITE_RATE_LIMIT and WRITE_BURST must be positive"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
