package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/voyagen/iptvbrowser/internal/models"
)

// Recent-channel store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var (
	ErrMissingDatabaseURL = errors.New("database_url (DATABASE_URL) is required for the postgres recent store")
	ErrMissingRedisURL    = errors.New("redis_url (REDIS_URL) is required for the redis recent store")
)

// Config holds application configuration.
type Config struct {
	ServerPort     string            `yaml:"server_port" env:"SERVER_PORT"`
	UserAgent      string            `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	Timeout        time.Duration     `yaml:"timeout" env:"FETCHER_TIMEOUT"`
	SearchDebounce time.Duration     `yaml:"search_debounce" env:"SEARCH_DEBOUNCE"`
	RecentStore    string            `yaml:"recent_store" env:"RECENT_STORE"`
	DatabaseURL    string            `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL       string            `yaml:"redis_url" env:"REDIS_URL"`
	MigrationsPath string            `yaml:"migrations_path" env:"MIGRATIONS_PATH"`
	LogLevel       string            `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string            `yaml:"log_format" env:"LOG_FORMAT"`
	Sources        map[string]string `yaml:"sources"`
	DefaultSource  string            `yaml:"default_source" env:"DEFAULT_SOURCE"`
}

// Defaults returns a Config with every optional field set.
func Defaults() *Config {
	sources := make(map[string]string, len(models.DefaultSources))
	for k, v := range models.DefaultSources {
		sources[k] = v
	}
	return &Config{
		ServerPort:     "8080",
		UserAgent:      "iptvbrowser/1.0",
		Timeout:        30 * time.Second,
		SearchDebounce: 300 * time.Millisecond,
		RecentStore:    StoreMemory,
		MigrationsPath: "migrations",
		LogLevel:       "info",
		LogFormat:      "json",
		Sources:        sources,
	}
}

// Load builds config from environment variables.
// If RECENT_STORE is not set, Load tries to load .env.local and .env from the
// current directory and the executable's directory first.
func Load() (*Config, error) {
	if os.Getenv("RECENT_STORE") == "" {
		loadEnvFiles(envSearchDirs())
	}
	c := Defaults()
	setString(&c.ServerPort, "SERVER_PORT")
	setString(&c.UserAgent, "FETCHER_USER_AGENT")
	setString(&c.RecentStore, "RECENT_STORE")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.MigrationsPath, "MIGRATIONS_PATH")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.DefaultSource, "DEFAULT_SOURCE")
	setDuration(&c.Timeout, "FETCHER_TIMEOUT")
	setDuration(&c.SearchDebounce, "SEARCH_DEBOUNCE")

	// PLAYLIST_SOURCES="name=url,name=url" replaces the presets.
	if s := os.Getenv("PLAYLIST_SOURCES"); s != "" {
		c.Sources = parseSources(s)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.RecentStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
	default:
		return fmt.Errorf("unknown recent_store %q (use memory, postgres or redis)", c.RecentStore)
	}
	if c.DefaultSource != "" {
		if _, ok := c.Sources[c.DefaultSource]; !ok {
			return fmt.Errorf("default_source %q is not a configured source", c.DefaultSource)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			*dst = d
		}
	}
}

func parseSources(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}
	return out
}
