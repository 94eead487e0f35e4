// Package config loads the calcalc YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DipperMason/calcalc/internal/logging"
	"github.com/DipperMason/calcalc/internal/wolfram"
)

// Remote configures the Wolfram|Alpha resolver.
type Remote struct {
	BaseURL string        `yaml:"base_url"`
	AppID   string        `yaml:"app_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// History configures the SQLite evaluation log.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Cache configures the optional Redis answer cache. An empty address disables it.
type Cache struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	Prefix    string        `yaml:"prefix"`
}

// Server configures the HTTP service. An empty JWT secret disables authentication.
type Server struct {
	Addr      string        `yaml:"addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Log configures the application logger.
type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	Remote  Remote  `yaml:"remote"`
	History History `yaml:"history"`
	Cache   Cache   `yaml:"cache"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
}

// Dir is the per-user calcalc directory, ~/.calcalc.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".calcalc"
	}
	return filepath.Join(home, ".calcalc")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Remote: Remote{
			BaseURL: wolfram.DefaultBaseURL,
			AppID:   wolfram.DefaultAppID,
			Timeout: wolfram.DefaultTimeout,
		},
		History: History{
			Enabled: true,
			Path:    filepath.Join(Dir(), "history.db"),
		},
		Cache: Cache{
			TTL:    24 * time.Hour,
			Prefix: "calcalc:",
		},
		Server: Server{
			Addr:     ":8080",
			TokenTTL: 10 * time.Minute,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path reads DefaultPath, which may be missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("CALCALC_APPID"); v != "" {
		c.Remote.AppID = v
	}
	if v := getenv("CALCALC_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := getenv("CALCALC_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []string
	if c.Remote.BaseURL == "" {
		errs = append(errs, "remote.base_url is required")
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, "remote.timeout must be positive")
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}
	if c.Server.TokenTTL <= 0 {
		errs = append(errs, "server.token_ttl must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
