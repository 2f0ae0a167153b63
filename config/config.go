// Package config loads and validates the operations backend configuration
// from YAML or JSON files with environment variable overrides.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// Config is the complete opsd configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	NATS      NATSConfig      `json:"nats" yaml:"nats"`
	Reconnect ReconnectConfig `json:"reconnect" yaml:"reconnect"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	MetricsPort  int           `json:"metrics_port" yaml:"metrics_port"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`
}

// AuthConfig holds token verification settings. Secret is required and has
// no default; it arrives via file or OPSD_AUTH_SECRET.
type AuthConfig struct {
	Secret string        `json:"secret" yaml:"secret"`
	Issuer string        `json:"issuer" yaml:"issuer"`
	Leeway time.Duration `json:"leeway" yaml:"leeway"`
}

// NATSConfig holds the event mirror connection settings. An empty URL
// disables the mirror.
type NATSConfig struct {
	URL           string        `json:"url" yaml:"url"`
	MaxReconnects int           `json:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait time.Duration `json:"reconnect_wait" yaml:"reconnect_wait"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`
}

// ReconnectConfig is the backoff schedule handed to shop-floor clients
type ReconnectConfig struct {
	MaxAttempts  int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			MetricsPort:  9090,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			PingInterval: 30 * time.Second,
		},
		Auth: AuthConfig{
			Leeway: 30 * time.Second,
		},
		NATS: NATSConfig{
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			Timeout:       5 * time.Second,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a config file (YAML or JSON by extension), applies environment
// overrides, and validates. path may be empty: defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "config", "Load", "read config file")
		}
		if strings.HasSuffix(path, ".json") {
			err = json.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse config file")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays OPSD_* environment variables onto the config
func (c *Config) applyEnv() {
	if v := os.Getenv("OPSD_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("OPSD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("OPSD_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.MetricsPort = port
		}
	}
	if v := os.Getenv("OPSD_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("OPSD_AUTH_ISSUER"); v != "" {
		c.Auth.Issuer = v
	}
	if v := os.Getenv("OPSD_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("OPSD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OPSD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks the configuration for usability
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate",
			"auth secret is required (set auth.secret or OPSD_AUTH_SECRET)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"server port out of range")
	}
	if c.Server.MetricsPort == c.Server.Port {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"metrics port must differ from server port")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"unknown log level "+c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"unknown log format "+c.Logging.Format)
	}
	if c.Reconnect.MaxAttempts <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"reconnect max attempts must be positive")
	}
	if c.Reconnect.InitialDelay <= 0 || c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"reconnect delays must be positive and ordered")
	}
	return nil
}
