package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	ServerPort     string            `yaml:"server_port"`
	UserAgent      string            `yaml:"user_agent"`
	Timeout        string            `yaml:"timeout"`
	SearchDebounce string            `yaml:"search_debounce"`
	RecentStore    string            `yaml:"recent_store"`
	DatabaseURL    string            `yaml:"database_url"`
	RedisURL       string            `yaml:"redis_url"`
	MigrationsPath string            `yaml:"migrations_path"`
	LogLevel       string            `yaml:"log_level"`
	LogFormat      string            `yaml:"log_format"`
	Sources        map[string]string `yaml:"sources"`
	DefaultSource  string            `yaml:"default_source"`
}

// LoadFromFile loads config from a YAML file. Unset fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := Defaults()
	override(&c.ServerPort, f.ServerPort)
	override(&c.UserAgent, f.UserAgent)
	override(&c.RecentStore, f.RecentStore)
	override(&c.DatabaseURL, f.DatabaseURL)
	override(&c.RedisURL, f.RedisURL)
	override(&c.MigrationsPath, f.MigrationsPath)
	override(&c.LogLevel, f.LogLevel)
	override(&c.LogFormat, f.LogFormat)
	override(&c.DefaultSource, f.DefaultSource)
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	if f.SearchDebounce != "" {
		if d, err := time.ParseDuration(f.SearchDebounce); err == nil {
			c.SearchDebounce = d
		}
	}
	if len(f.Sources) > 0 {
		c.Sources = f.Sources
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
