package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every setting shared by the CLI and the HTTP server.
// Precedence: flags > environment (.env included) > config file > defaults.
type Config struct {
	APIKey            string
	BaseURL           string
	MaxRetries        int
	RetryDelay        time.Duration
	RetryBackoff      string
	RequestTimeout    time.Duration
	CostPerRequest    float64
	RequestsPerSecond float64
	DatabaseURL       string
	RedisURL          string
	RunTTL            time.Duration
	Port              string
	LogLevel          string
	Input             string
	Output            string
}

// flag name -> config key; keys double as upper-cased env names.
var flagKeys = map[string]string{
	"api-key":             "google_api_key",
	"base-url":            "routes_base_url",
	"max-retries":         "max_retries",
	"retry-delay":         "retry_delay",
	"retry-backoff":       "retry_backoff",
	"request-timeout":     "request_timeout",
	"cost-per-request":    "cost_per_request",
	"requests-per-second": "requests_per_second",
	"database-url":        "database_url",
	"redis-url":           "redis_url",
	"run-ttl":             "run_ttl",
	"port":                "port",
	"log-level":           "log_level",
	"input":               "input",
	"output":              "output",
}

// RegisterFlags declares the flags Load understands. Flags keep empty
// defaults; the real defaults live in Load so env and config files can win.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json, toml, env)")
	fs.String("api-key", "", "Google Routes API key (GOOGLE_API_KEY)")
	fs.String("base-url", "", "routes API base URL")
	fs.Int("max-retries", 0, "attempts per pair, including the first")
	fs.Duration("retry-delay", 0, "wait between attempts, e.g. 2s")
	fs.String("retry-backoff", "", "backoff between attempts: fixed or exponential")
	fs.Duration("request-timeout", 0, "timeout of a single request")
	fs.Float64("cost-per-request", 0, "estimated USD cost of one request")
	fs.Float64("requests-per-second", 0, "request rate limit, 0 for none")
	fs.String("database-url", "", "PostgreSQL DSN for the run archive")
	fs.String("redis-url", "", "Redis URL for the run archive, used when no database is set")
	fs.Duration("run-ttl", 0, "how long Redis keeps archived runs, 0 for forever")
	fs.String("port", "", "HTTP listen port")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("input", "", "file with origin,destination lines, - for stdin")
	fs.String("output", "", "CSV output path")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("routes_base_url", "https://routes.googleapis.com")
	v.SetDefault("max_retries", 2)
	v.SetDefault("retry_delay", 2*time.Second)
	v.SetDefault("retry_backoff", "fixed")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("cost_per_request", 0.005)
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("run_ttl", 24*time.Hour)
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("output", "distances.csv")
}

// Load resolves the configuration. fs may be nil when no flags are in play.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()

	configPath := os.Getenv("CONFIG_FILE")
	if fs != nil {
		for flagName, key := range flagKeys {
			if f := fs.Lookup(flagName); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("load config: bind flag %q: %w", flagName, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Changed {
			configPath = f.Value.String()
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config: read %q: %w", configPath, err)
		}
	}

	var durErrs []error
	duration := func(key string) time.Duration {
		d, err := durationSetting(v, key)
		if err != nil {
			durErrs = append(durErrs, err)
		}
		return d
	}

	cfg := &Config{
		APIKey:            strings.TrimSpace(v.GetString("google_api_key")),
		BaseURL:           v.GetString("routes_base_url"),
		MaxRetries:        v.GetInt("max_retries"),
		RetryDelay:        duration("retry_delay"),
		RetryBackoff:      strings.ToLower(v.GetString("retry_backoff")),
		RequestTimeout:    duration("request_timeout"),
		CostPerRequest:    v.GetFloat64("cost_per_request"),
		RequestsPerSecond: v.GetFloat64("requests_per_second"),
		DatabaseURL:       v.GetString("database_url"),
		RedisURL:          v.GetString("redis_url"),
		RunTTL:            duration("run_ttl"),
		Port:              v.GetString("port"),
		LogLevel:          v.GetString("log_level"),
		Input:             v.GetString("input"),
		Output:            v.GetString("output"),
	}

	if err := errors.Join(durErrs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// durationSetting reads a duration such as "1m30s". A bare number counts as
// seconds, so RETRY_DELAY=2 means two seconds, not two nanoseconds.
func durationSetting(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Validate checks values that are not tied to a particular command.
// The API key is checked by the commands that need it.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_delay must not be negative, got %s", c.RetryDelay))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.CostPerRequest < 0 {
		errs = append(errs, fmt.Errorf("cost_per_request must not be negative, got %v", c.CostPerRequest))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond))
	}
	if c.RunTTL < 0 {
		errs = append(errs, fmt.Errorf("run_ttl must not be negative, got %s", c.RunTTL))
	}
	if c.RetryBackoff != "fixed" && c.RetryBackoff != "exponential" {
		errs = append(errs, fmt.Errorf("retry_backoff must be fixed or exponential, got %q", c.RetryBackoff))
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("routes_base_url must not be empty"))
	}

	return errors.Join(errs...)
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
