// Package utils loads process configuration and builds the shared logger.
package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type SmartsheetConfig struct {
	Token     string  `yaml:"token"`
	BaseURL   string  `yaml:"base_url"`
	RateLimit float64 `yaml:"rate_limit"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
}

type Config struct {
	Gemini     GeminiConfig     `yaml:"gemini"`
	Smartsheet SmartsheetConfig `yaml:"smartsheet"`
	Auth       AuthConfig       `yaml:"auth"`

	ListenAddr  string        `yaml:"listen_addr"`
	GRPCAddr    string        `yaml:"grpc_addr"`
	DBPath      string        `yaml:"db_path"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Warnings collects non-fatal problems found while loading. The caller
	// logs them once the logger exists.
	Warnings []string `yaml:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return &Config{
		Gemini:      GeminiConfig{Model: "gemini-1.5-flash", BaseURL: "https://generativelanguage.googleapis.com/v1beta"},
		Smartsheet:  SmartsheetConfig{BaseURL: "https://api.smartsheet.com/2.0", RateLimit: 5},
		Auth:        AuthConfig{JWTIssuer: "gridsync", JWTDuration: 24 * time.Hour},
		ListenAddr:  ":5001",
		GRPCAddr:    ":9090",
		DBPath:      filepath.Join(home, ".gridsync", "runs.db"),
		LogLevel:    "info",
		LogFormat:   "json",
		HTTPTimeout: 60 * time.Second,
	}
}

// LoadConfig layers defaults, the YAML file at path (or GRIDSYNC_CONFIG) and
// environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("GRIDSYNC_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Auth.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "GRIDSYNC_JWT_SECRET not set: API is unauthenticated")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Gemini.BaseURL, "GEMINI_BASE_URL")
	setString(&cfg.Smartsheet.Token, "SMARTSHEET_API_TOKEN")
	setString(&cfg.Smartsheet.BaseURL, "SMARTSHEET_BASE_URL")
	setString(&cfg.Auth.JWTSecret, "GRIDSYNC_JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "GRIDSYNC_JWT_ISSUER")
	setString(&cfg.DBPath, "GRIDSYNC_DB_PATH")
	setString(&cfg.GRPCAddr, "GRPC_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	if p := os.Getenv("PORT"); p != "" {
		cfg.ListenAddr = ":" + p
	}
	setString(&cfg.ListenAddr, "LISTEN_ADDR")

	if v := os.Getenv("STORE_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Smartsheet.RateLimit = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid STORE_RATE_LIMIT %q", v))
		}
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid HTTP_TIMEOUT %q", v))
		}
	}
	if v := os.Getenv("GRIDSYNC_JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Auth.JWTDuration = d
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports missing credentials for the external services.
func (c *Config) Validate() error {
	var errs []error
	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Smartsheet.Token == "" {
		errs = append(errs, errors.New("SMARTSHEET_API_TOKEN is required"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
